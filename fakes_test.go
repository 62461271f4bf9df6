package jobscope

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory ContentStore for tests. Setting failWith makes
// every call return that error.
type memStore struct {
	mu       sync.Mutex
	posts    map[string]Post
	nextID   int
	lists    int
	failWith error
}

func newMemStore(posts ...Post) *memStore {
	s := &memStore{posts: make(map[string]Post)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *memStore) List(_ context.Context, opts ListOptions) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedDate.After(out[j].PublishedDate) })
	return limitPosts(out, opts.Limit), nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Post{}, s.failWith
	}
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

func (s *memStore) GetByID(_ context.Context, id string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Post{}, s.failWith
	}
	p, ok := s.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (s *memStore) slugTaken(slug, except string) bool {
	for id, p := range s.posts {
		if p.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (s *memStore) Create(_ context.Context, f PostFields) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Post{}, s.failWith
	}
	if s.slugTaken(f.Slug, "") {
		return Post{}, ErrSlugTaken
	}
	s.nextID++
	now := time.Now().UTC()
	p := postFromFields(fmt.Sprintf("post-%d", s.nextID), f)
	p.CreatedAt, p.UpdatedAt = now, now
	s.posts[p.ID] = p
	return p, nil
}

func (s *memStore) Update(_ context.Context, id string, f PostFields) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return Post{}, s.failWith
	}
	old, ok := s.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	if s.slugTaken(f.Slug, id) {
		return Post{}, ErrSlugTaken
	}
	p := postFromFields(id, f)
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, time.Now().UTC()
	s.posts[id] = p
	return p, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *memStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

func (s *memStore) fail(err error) {
	s.mu.Lock()
	s.failWith = err
	s.mu.Unlock()
}

func postFromFields(id string, f PostFields) Post {
	return Post{
		ID:              id,
		Title:           f.Title,
		Slug:            f.Slug,
		Content:         f.Content,
		ContentType:     f.ContentType,
		SEOTitle:        f.SEOTitle,
		MetaDescription: f.MetaDescription,
		FocusKeywords:   f.FocusKeywords,
		CanonicalURL:    f.CanonicalURL,
		OGImageURL:      f.OGImageURL,
		Tags:            f.Tags,
		PublishedDate:   f.PublishedDate,
	}
}

// countingReader records Invalidate calls.
type countingReader struct {
	PostReader
	invalidated int
}

func (r *countingReader) Invalidate(ctx context.Context) {
	r.invalidated++
	if r.PostReader != nil {
		r.PostReader.Invalidate(ctx)
	}
}
