package jobscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Listing sizes for the public pages.
const (
	HomeRecentPosts = 3
	MaxRelatedPosts = 3
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context(), ListOptions{Limit: HomeRecentPosts})
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(HomeData{
		PageData: a.page(DefaultMeta(a.Config)),
		Recent:   posts,
	}))
}

func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context(), ListOptions{})
	if err != nil {
		return err
	}
	query := strings.TrimSpace(c.QueryParam("q"))
	tag := strings.TrimSpace(c.QueryParam("tag"))

	meta := BlogIndexMeta(a.Config)
	if query != "" || tag != "" {
		// Filtered listings point search engines at the unfiltered page.
		meta.Canonical = meta.URL
	}
	return Render(c, a.Views.Blog(BlogData{
		PageData: a.page(meta),
		Posts:    FilterPosts(posts, query, tag),
		Query:    query,
		Tag:      tag,
		Tags:     TagVocabulary(posts, MaxTagChips),
		Total:    len(posts),
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Posts.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c)
	}
	if err != nil {
		return err
	}
	posts, err := a.Posts.List(ctx, ListOptions{})
	if err != nil {
		return err
	}
	meta := PostMeta(a.Config, post)
	return Render(c, a.Views.Post(PostData{
		PageData:    a.page(meta),
		Post:        post,
		ReadingTime: ReadingTime(post.Content),
		Related:     FilterRelatedPosts(post, posts, MaxRelatedPosts),
		Share:       ShareLinks(BuildURL(a.Config.URL, "blog", post.Slug), post.Title, post.MetaDescription),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context(), ListOptions{})
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context(), ListOptions{})
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func (a *App) handleHealth(c echo.Context) error {
	status := map[string]string{"status": "ok", "version": Version}
	if a.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := a.db.Ping(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "health check failed", slog.String("error", err.Error()))
			status["status"] = "unavailable"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return c.JSON(http.StatusOK, status)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(PageTitleMeta(a.Config, "Page Not Found"))))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.ErrorContext(c.Request().Context(), "server error",
			slog.String("path", c.Request().URL.Path),
			slog.String("error", err.Error()),
		)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(PageTitleMeta(a.Config, "Something Went Wrong"))))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
