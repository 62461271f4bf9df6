// Package jobscope is the Job Scope India blog: a server-rendered site with a
// home page, a searchable blog listing, post pages with SEO metadata, and a
// PIN-gated admin console for authoring posts.
//
// Pages are templ components supplied through ViewFuncs; the views package
// provides the stock set. Posts live in SQLite behind the ContentStore
// interface and public reads go through an in-memory or Redis cache.
package jobscope

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App is the central application. It wires together the store, cache,
// handlers, middleware and views.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   ContentStore
	Posts   PostReader
	Views   ViewFuncs
	Logger  *slog.Logger
	Metrics *Metrics

	content      ContentStore
	db           *Store
	redis        *redis.Client
	gate         *PINGate
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	}
	return a
}

// Init opens the store and cache and registers middleware and routes. Start
// calls it; tests call it directly and drive a.Echo with httptest.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("jobscope: %w", err)
	}

	gate, err := NewPINGate(a.Config.AdminPIN)
	if err != nil {
		return fmt.Errorf("jobscope: %w", err)
	}
	a.gate = gate

	if a.content == nil {
		db, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("jobscope: init store: %w", err)
		}
		a.db = db
		a.content = db
	}

	a.Metrics = NewMetrics()
	a.Store = NewObservedStore(a.content, a.Metrics, a.Logger)

	if a.redis == nil && a.Config.RedisURL != "" {
		client, err := NewRedisClient(ctx, a.Config.RedisURL)
		if err != nil {
			a.Logger.Warn("redis unavailable, using in-memory post cache", slog.String("error", err.Error()))
		} else {
			a.redis = client
		}
	}
	if a.redis != nil {
		a.Posts = NewRedisCache(a.redis, a.Store, a.Config.PostCacheTTL, a.Logger)
	} else {
		a.Posts = NewPostCache(a.Store, a.Config.PostCacheTTL)
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until ctx is cancelled, then
// shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", slog.String("addr", a.Config.Addr), slog.String("version", Version))
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	assetHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(assets))))
	e.GET("/public/styles.css", assetHandler)
	e.GET("/public/admin.js", assetHandler)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/:slug/", a.handlePost)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/new/", a.handleAdminNew)
	e.GET("/admin/post/:id/", a.handleAdminPost)
	e.POST("/admin/save/", a.handleAdminSave)
	e.GET("/admin/post/:id/delete/", a.handleAdminDeleteConfirm)
	e.POST("/admin/post/:id/delete/", a.handleAdminDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.POST("/admin/images/:filename/delete/", a.handleImageDelete)
}

// Close releases the database, the Redis client and the limiter sweep.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
