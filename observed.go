package jobscope

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ObservedStore wraps a ContentStore with a span, latency histogram and error
// log per call. ErrNotFound is an expected outcome and is not counted.
type ObservedStore struct {
	next    ContentStore
	metrics *Metrics
	log     *slog.Logger
}

// NewObservedStore decorates next. metrics may be nil.
func NewObservedStore(next ContentStore, m *Metrics, log *slog.Logger) *ObservedStore {
	if log == nil {
		log = slog.Default()
	}
	return &ObservedStore{next: next, metrics: m, log: log}
}

func (s *ObservedStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := tracer().Start(ctx, "store."+op, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", op),
		attribute.String("db.table", "blog_posts"),
	)
	span.SetAttributes(attrs...)
	return ctx, func(err error) {
		defer span.End()
		if s.metrics != nil {
			s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(begin).Seconds())
		}
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlugTaken) {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.metrics != nil {
			s.metrics.StoreErrors.WithLabelValues(op).Inc()
		}
		s.log.ErrorContext(ctx, "store error",
			slog.String("table", "blog_posts"),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ObservedStore) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	ctx, done := s.start(ctx, "list", attribute.Int("limit", opts.Limit))
	posts, err := s.next.List(ctx, opts)
	done(err)
	return posts, err
}

func (s *ObservedStore) GetBySlug(ctx context.Context, slug string) (Post, error) {
	ctx, done := s.start(ctx, "get_by_slug", attribute.String("post.slug", slug))
	p, err := s.next.GetBySlug(ctx, slug)
	done(err)
	return p, err
}

func (s *ObservedStore) GetByID(ctx context.Context, id string) (Post, error) {
	ctx, done := s.start(ctx, "get_by_id", attribute.String("post.id", id))
	p, err := s.next.GetByID(ctx, id)
	done(err)
	return p, err
}

func (s *ObservedStore) Create(ctx context.Context, f PostFields) (Post, error) {
	ctx, done := s.start(ctx, "create", attribute.String("post.slug", f.Slug))
	p, err := s.next.Create(ctx, f)
	done(err)
	return p, err
}

func (s *ObservedStore) Update(ctx context.Context, id string, f PostFields) (Post, error) {
	ctx, done := s.start(ctx, "update", attribute.String("post.id", id), attribute.String("post.slug", f.Slug))
	p, err := s.next.Update(ctx, id, f)
	done(err)
	return p, err
}

func (s *ObservedStore) Delete(ctx context.Context, id string) error {
	ctx, done := s.start(ctx, "delete", attribute.String("post.id", id))
	err := s.next.Delete(ctx, id)
	done(err)
	return err
}
