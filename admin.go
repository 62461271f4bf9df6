package jobscope

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// countedReader counts cache invalidations triggered by admin writes.
type countedReader struct {
	PostReader
	invalidations prometheus.Counter
}

func (r countedReader) Invalidate(ctx context.Context) {
	r.invalidations.Inc()
	r.PostReader.Invalidate(ctx)
}

// console returns a Console for this request, unlocked when the session
// cookie says the PIN was already accepted.
func (a *App) console(c echo.Context) *Console {
	cache := countedReader{PostReader: a.Posts, invalidations: a.Metrics.CacheInvalid}
	return NewConsole(a.Store, a.gate, cache, a.Logger).Resume(IsAdmin(c))
}

func (a *App) adminData(c echo.Context, st AdminState) AdminData {
	return AdminData{
		PageData:  a.page(PageTitleMeta(a.Config, "Admin")),
		State:     st,
		CSRFToken: CsrfToken(c),
	}
}

func (a *App) renderLogin(c echo.Context, code int, st AdminState) error {
	data := a.adminData(c, st)
	data.Meta = PageTitleMeta(a.Config, "Admin Login")
	return RenderStatus(c, code, a.Views.AdminLogin(data))
}

func (a *App) renderDashboard(c echo.Context, st AdminState) error {
	code := http.StatusOK
	if st.Notice != nil && st.Notice.Error {
		code = http.StatusUnprocessableEntity
	}
	data := a.adminData(c, st)
	images, err := a.listImages()
	if err != nil {
		a.Logger.WarnContext(c.Request().Context(), "list images", slog.String("error", err.Error()))
	}
	data.Images = images
	return RenderStatus(c, code, a.Views.AdminDashboard(data))
}

func (a *App) handleAdmin(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return a.renderLogin(c, http.StatusOK, con.State())
	}
	return a.renderDashboard(c, con.Dispatch(c.Request().Context(), ListRequested{}))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		a.Metrics.LoginAttempts.WithLabelValues("limited").Inc()
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	ctx := c.Request().Context()
	st := NewConsole(a.Store, a.gate, nil, a.Logger).Dispatch(ctx, PINSubmitted{PIN: c.FormValue("pin")})
	if !st.Authenticated {
		a.loginLimiter.Record(ip)
		a.Metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		a.Logger.WarnContext(ctx, "admin login failed", slog.String("ip", ip))
		return a.renderLogin(c, http.StatusUnauthorized, st)
	}
	a.loginLimiter.Reset(ip)
	a.Metrics.LoginAttempts.WithLabelValues("success").Inc()
	a.Logger.InfoContext(ctx, "admin login", slog.String("ip", ip))
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminNew(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	con.Dispatch(ctx, FormReset{})
	return a.renderDashboard(c, con.Dispatch(ctx, ListRequested{}))
}

func (a *App) handleAdminPost(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	con.Dispatch(ctx, ListRequested{})
	return a.renderDashboard(c, con.Dispatch(ctx, EditSelected{ID: c.Param("id")}))
}

func (a *App) handleAdminSave(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	st := con.Dispatch(ctx, DraftSubmitted{Draft: draftFromForm(c)})
	if !st.ListLoaded {
		st = con.Dispatch(ctx, ListRequested{})
	}
	return a.renderDashboard(c, st)
}

func (a *App) handleAdminDeleteConfirm(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	con.Dispatch(ctx, ListRequested{})
	st := con.Dispatch(ctx, DeleteRequested{ID: c.Param("id")})
	if st.PendingDelete() == nil {
		return a.renderNotFound(c)
	}
	data := a.adminData(c, st)
	data.Meta = PageTitleMeta(a.Config, "Delete Post")
	return Render(c, a.Views.AdminConfirmDelete(data))
}

func (a *App) handleAdminDelete(c echo.Context) error {
	con := a.console(c)
	if !con.State().Authenticated {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	ctx := c.Request().Context()
	con.Dispatch(ctx, DeleteRequested{ID: c.Param("id")})
	if c.FormValue("confirm") != "yes" {
		con.Dispatch(ctx, DeleteCancelled{})
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	st := con.Dispatch(ctx, DeleteConfirmed{})
	if !st.ListLoaded {
		st = con.Dispatch(ctx, ListRequested{})
	}
	return a.renderDashboard(c, st)
}

func draftFromForm(c echo.Context) Draft {
	return Draft{
		ID:              c.FormValue("id"),
		Title:           c.FormValue("title"),
		Slug:            c.FormValue("slug"),
		SlugSource:      c.FormValue("slug_source"),
		Content:         c.FormValue("content"),
		ContentType:     c.FormValue("content_type"),
		SEOTitle:        c.FormValue("seo_title"),
		MetaDescription: c.FormValue("meta_description"),
		FocusKeywords:   c.FormValue("focus_keywords"),
		CanonicalURL:    c.FormValue("canonical_url"),
		OGImageURL:      c.FormValue("og_image_url"),
		Tags:            c.FormValue("tags"),
		PublishedDate:   c.FormValue("published_date"),
	}
}
