package jobscope_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscopeindia/jobscope"
	"github.com/jobscopeindia/jobscope/views"
)

const testPIN = "2468"

// testSite drives the app through Echo like a browser: it keeps cookies
// between requests so sessions and CSRF tokens work.
type testSite struct {
	t         *testing.T
	app       *jobscope.App
	staticDir string
	cookies   map[string]*http.Cookie
}

func newTestSite(t *testing.T, opts ...jobscope.Option) *testSite {
	t.Helper()
	dir := t.TempDir()
	cfg := jobscope.SiteConfig{
		URL:           "https://jobscopeindia.com",
		AdminPIN:      testPIN,
		SessionSecret: "test-session-secret",
		DatabasePath:  filepath.Join(dir, "blog.db"),
		PostCacheTTL:  time.Minute,
	}
	static := filepath.Join(dir, "public")
	opts = append([]jobscope.Option{
		jobscope.WithStaticDir(static),
		jobscope.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	app := jobscope.New(cfg, views.Funcs(), opts...)
	require.NoError(t, app.Init(context.Background()))
	t.Cleanup(func() { app.Close() })
	return &testSite{t: t, app: app, staticDir: static, cookies: map[string]*http.Cookie{}}
}

func (s *testSite) addPost(title, description string, published time.Time, tags ...string) jobscope.Post {
	s.t.Helper()
	p, err := s.app.Store.Create(context.Background(), jobscope.PostFields{
		Title:           title,
		Slug:            jobscope.Slugify(title),
		Content:         "## " + title + "\n\nSome useful advice for job seekers.",
		ContentType:     jobscope.ContentMarkdown,
		MetaDescription: description,
		FocusKeywords:   "jobs, india",
		Tags:            tags,
		PublishedDate:   published,
	})
	require.NoError(s.t, err)
	s.app.Posts.Invalidate(context.Background())
	return p
}

func (s *testSite) seed() []jobscope.Post {
	return []jobscope.Post{
		s.addPost("Landing Your First Job", "Tips for freshers.", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "career", "freshers"),
		s.addPost("Remote Work Trends", "How hiring is changing.", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "jobs", "remote"),
		s.addPost("Salary Negotiation", "Ask for what you are worth.", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "salary", "jobs"),
		s.addPost("Interview Preparation", "Questions to expect.", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), "interview"),
	}
}

func (s *testSite) send(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(s.cookies, c.Name)
			continue
		}
		s.cookies[c.Name] = c
	}
	return rec
}

func (s *testSite) get(path string) *httptest.ResponseRecorder {
	return s.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testSite) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.send(req)
}

// csrf returns the token from the CSRF cookie, fetching a page first if needed.
func (s *testSite) csrf() string {
	s.t.Helper()
	if c, ok := s.cookies["_csrf"]; ok {
		return c.Value
	}
	s.get("/admin/")
	c, ok := s.cookies["_csrf"]
	require.True(s.t, ok, "no CSRF cookie issued")
	return c.Value
}

func (s *testSite) login() {
	s.t.Helper()
	rec := s.post("/admin/login/", url.Values{"pin": {testPIN}, "_csrf": {s.csrf()}})
	require.Equal(s.t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Contains(s.t, s.cookies, "admin_session")
}

func TestHomeShowsRecentPosts(t *testing.T) {
	s := newTestSite(t)
	s.seed()

	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Latest Insights")
	assert.Contains(t, body, "Interview Preparation")
	assert.Contains(t, body, "Salary Negotiation")
	assert.Contains(t, body, "Remote Work Trends")
	assert.NotContains(t, body, "Landing Your First Job", "only the three newest posts")
	assert.Contains(t, body, `"@type":"WebSite"`)
	assert.Contains(t, body, "<title>Job Scope India - Career Insights &amp; Job Market Trends</title>")
}

func TestHomeWithoutPosts(t *testing.T) {
	s := newTestSite(t)
	rec := s.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts yet")
}

func TestBlogSearchAndTagFilter(t *testing.T) {
	s := newTestSite(t)
	s.seed()

	rec := s.get("/blog/")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, title := range []string{"Landing Your First Job", "Remote Work Trends", "Salary Negotiation", "Interview Preparation"} {
		assert.Contains(t, rec.Body.String(), title)
	}

	rec = s.get("/blog/?q=remote")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Remote Work Trends")
	assert.NotContains(t, body, "Landing Your First Job")
	assert.Contains(t, body, "1 of 4 posts")
	assert.Contains(t, body, `<link rel="canonical" href="https://jobscopeindia.com/blog/">`)

	rec = s.get("/blog/?tag=career")
	body = rec.Body.String()
	assert.Contains(t, body, "Landing Your First Job")
	assert.NotContains(t, body, "Salary Negotiation")

	rec = s.get("/blog/?q=blockchain")
	assert.Contains(t, rec.Body.String(), "No articles found matching your search.")
}

func TestBlogRedirectsToTrailingSlash(t *testing.T) {
	s := newTestSite(t)
	rec := s.get("/blog")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))
}

func TestPostPage(t *testing.T) {
	s := newTestSite(t)
	s.seed()

	rec := s.get("/blog/remote-work-trends/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<h2 id="remote-work-trends">Remote Work Trends</h2>`)
	assert.Contains(t, body, "1 min read")
	assert.Contains(t, body, "February 10, 2024")
	assert.Contains(t, body, `<link rel="canonical" href="https://jobscopeindia.com/blog/remote-work-trends/">`)
	assert.Contains(t, body, `"@type":"BlogPosting"`)
	assert.Contains(t, body, "https://wa.me/?text=")
	assert.Contains(t, body, "https://t.me/share/url?url=")
	assert.Contains(t, body, "Related Articles")
	assert.Contains(t, body, "Salary Negotiation", "shares the jobs tag")
}

func TestPostPageNotFound(t *testing.T) {
	s := newTestSite(t)
	rec := s.get("/blog/does-not-exist/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post Not Found")

	rec = s.get("/no/such/route/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTMLPostIsSanitized(t *testing.T) {
	s := newTestSite(t)
	_, err := s.app.Store.Create(context.Background(), jobscope.PostFields{
		Title:           "Unsafe Markup",
		Slug:            "unsafe-markup",
		Content:         `<p onclick="steal()">Hello</p><script>alert(1)</script><table><tr><td>ok</td></tr></table>`,
		ContentType:     jobscope.ContentHTML,
		MetaDescription: "Raw HTML body.",
		FocusKeywords:   "html",
		PublishedDate:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	s.app.Posts.Invalidate(context.Background())

	rec := s.get("/blog/unsafe-markup/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<p>Hello</p>")
	assert.Contains(t, body, "<td>ok</td>")
	assert.NotContains(t, body, "alert(1)")
	assert.NotContains(t, body, "steal()")
}

func TestFeedSitemapRobots(t *testing.T) {
	s := newTestSite(t)
	s.seed()

	rec := s.get("/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<link>https://jobscopeindia.com/blog/salary-negotiation/</link>")
	assert.Contains(t, rec.Body.String(), "<category>salary</category>")

	rec = s.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://jobscopeindia.com/blog/</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://jobscopeindia.com/blog/interview-preparation/</loc>")

	rec = s.get("/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /admin/")
	assert.Contains(t, rec.Body.String(), "Sitemap: https://jobscopeindia.com/sitemap.xml")
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestSite(t)

	rec := s.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	s.get("/")
	rec = s.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobscope_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/"`)
}

func TestEmbeddedAssets(t *testing.T) {
	s := newTestSite(t)

	rec := s.get("/public/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".post-card")

	rec = s.get("/public/admin.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slug_source")
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestSite(t)
	rec := s.get("/")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestAdminLogin(t *testing.T) {
	s := newTestSite(t)
	s.seed()

	rec := s.get("/admin/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin Login")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = s.post("/admin/login/", url.Values{"pin": {"0000"}, "_csrf": {s.csrf()}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid PIN. Please try again.")
	assert.NotContains(t, s.cookies, "admin_session")

	s.login()
	rec = s.get("/admin/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Published Posts (4)")
	assert.Contains(t, body, "Create New Blog Post")
	assert.Contains(t, body, "Remote Work Trends")

	rec = s.post("/admin/logout/", url.Values{"_csrf": {s.csrf()}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rec = s.get("/admin/")
	assert.Contains(t, rec.Body.String(), "Admin Login")
}

func TestAdminRequiresCSRFToken(t *testing.T) {
	s := newTestSite(t)
	rec := s.post("/admin/login/", url.Values{"pin": {testPIN}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminLoginRateLimit(t *testing.T) {
	s := newTestSite(t)
	token := s.csrf()
	for i := 0; i < 5; i++ {
		rec := s.post("/admin/login/", url.Values{"pin": {"0000"}, "_csrf": {token}})
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}
	rec := s.post("/admin/login/", url.Values{"pin": {testPIN}, "_csrf": {token}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminRoutesRedirectWhenLocked(t *testing.T) {
	s := newTestSite(t)
	posts := s.seed()
	token := s.csrf()

	for _, path := range []string{"/admin/new/", "/admin/post/" + posts[0].ID + "/", "/admin/images/"} {
		rec := s.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
	}
	rec := s.post("/admin/save/", url.Values{"_csrf": {token}, "title": {"Sneaky"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rec = s.post("/admin/post/"+posts[0].ID+"/delete/", url.Values{"_csrf": {token}, "confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, err := s.app.Store.GetByID(context.Background(), posts[0].ID)
	assert.NoError(t, err, "locked console must not delete")
}

func postForm(token string) url.Values {
	return url.Values{
		"_csrf":            {token},
		"title":            {"Top Skills Recruiters Want"},
		"slug":             {""},
		"content":          {"## Skills\n\nCommunication and **problem solving**."},
		"content_type":     {"markdown"},
		"meta_description": {"The skills Indian recruiters look for."},
		"focus_keywords":   {"skills, recruiters"},
		"tags":             {"career, skills,, "},
		"published_date":   {"2024-06-01"},
	}
}

func TestAdminCreateEditDelete(t *testing.T) {
	s := newTestSite(t)
	s.seed()
	s.login()

	// Prime the public cache so the create must invalidate it.
	require.Equal(t, http.StatusOK, s.get("/blog/").Code)

	rec := s.post("/admin/save/", postForm(s.csrf()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Post Created")
	assert.Contains(t, rec.Body.String(), "Published Posts (5)")

	created, err := s.app.Store.GetBySlug(context.Background(), "top-skills-recruiters-want")
	require.NoError(t, err)
	assert.Equal(t, []string{"career", "skills"}, created.Tags)
	assert.Equal(t, "Top Skills Recruiters Want", created.SEOTitle)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), created.PublishedDate)

	rec = s.get("/blog/top-skills-recruiters-want/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>problem solving</strong>")

	rec = s.get("/admin/post/" + created.ID + "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edit Blog Post")
	assert.Contains(t, rec.Body.String(), `value="top-skills-recruiters-want"`)

	form := postForm(s.csrf())
	form.Set("id", created.ID)
	form.Set("slug_source", "Top Skills Recruiters Want")
	form.Set("slug", "top-skills-recruiters-want")
	form.Set("title", "Top Skills Recruiters Want in 2024")
	form.Set("seo_title", "Recruiter Skills 2024")
	rec = s.post("/admin/save/", form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Post Updated")
	assert.Contains(t, rec.Body.String(), "Published Posts (5)")

	updated, err := s.app.Store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "top-skills-recruiters-want-in-2024", updated.Slug)
	assert.Equal(t, "Recruiter Skills 2024", updated.SEOTitle)

	rec = s.get("/admin/post/" + created.ID + "/delete/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete")

	rec = s.post("/admin/post/"+created.ID+"/delete/", url.Values{"_csrf": {s.csrf()}, "confirm": {"no"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = s.app.Store.GetByID(context.Background(), created.ID)
	require.NoError(t, err, "cancel keeps the post")

	rec = s.post("/admin/post/"+created.ID+"/delete/", url.Values{"_csrf": {s.csrf()}, "confirm": {"yes"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post Deleted")
	assert.Contains(t, rec.Body.String(), "Published Posts (4)")

	assert.Equal(t, http.StatusNotFound, s.get("/blog/top-skills-recruiters-want-in-2024/").Code)
}

func TestAdminSaveValidationAndConflict(t *testing.T) {
	s := newTestSite(t)
	s.seed()
	s.login()

	form := postForm(s.csrf())
	form.Set("meta_description", "")
	rec := s.post("/admin/save/", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Meta description is required.")
	assert.Contains(t, rec.Body.String(), `value="Top Skills Recruiters Want"`, "draft is kept")

	form = postForm(s.csrf())
	form.Set("title", "Remote Work Trends")
	rec = s.post("/admin/save/", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "A post with this slug already exists.")
}

func TestAdminDeleteConfirmUnknownPost(t *testing.T) {
	s := newTestSite(t)
	s.login()
	rec := s.get("/admin/post/missing/delete/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminImageUpload(t *testing.T) {
	s := newTestSite(t)
	s.login()

	img := image.NewRGBA(image.Rect(0, 0, 1600, 900))
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("_csrf", s.csrf()))
	fw, err := mw.CreateFormFile("image", "Campus Drive.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/images/upload/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.send(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "/public/uploads/campus-drive.jpg")
	assert.Contains(t, rec.Body.String(), "1200×675")

	_, err = os.Stat(filepath.Join(s.staticDir, "uploads", "campus-drive.jpg"))
	require.NoError(t, err)

	rec = s.get("/admin/")
	assert.Contains(t, rec.Body.String(), `<option value="/public/uploads/campus-drive.jpg">`)

	rec = s.post("/admin/images/campus-drive.jpg/delete/", url.Values{"_csrf": {s.csrf()}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No images uploaded yet.")
}

func TestRedisBackedPostCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := newTestSite(t, jobscope.WithRedisClient(client))
	s.seed()
	s.login()

	require.Equal(t, http.StatusOK, s.get("/blog/").Code)
	assert.True(t, mr.Exists(jobscope.PostsCacheKey))

	rec := s.post("/admin/save/", postForm(s.csrf()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists(jobscope.PostsCacheKey), "admin write drops the shared listing")

	rec = s.get("/blog/top-skills-recruiters-want/")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCustomRoutes(t *testing.T) {
	s := newTestSite(t, jobscope.WithCustomRoutes(func(a *jobscope.App) {
		a.Echo.GET("/careers/", func(c echo.Context) error {
			return c.String(http.StatusOK, "We are hiring")
		})
	}))
	rec := s.get("/careers/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "We are hiring", rec.Body.String())
}

// brokenStore fails every call, standing in for an unreachable database.
type brokenStore struct{}

var errBroken = errors.New("database is unreachable")

func (brokenStore) List(context.Context, jobscope.ListOptions) ([]jobscope.Post, error) {
	return nil, errBroken
}
func (brokenStore) GetBySlug(context.Context, string) (jobscope.Post, error) {
	return jobscope.Post{}, errBroken
}
func (brokenStore) GetByID(context.Context, string) (jobscope.Post, error) {
	return jobscope.Post{}, errBroken
}
func (brokenStore) Create(context.Context, jobscope.PostFields) (jobscope.Post, error) {
	return jobscope.Post{}, errBroken
}
func (brokenStore) Update(context.Context, string, jobscope.PostFields) (jobscope.Post, error) {
	return jobscope.Post{}, errBroken
}
func (brokenStore) Delete(context.Context, string) error { return errBroken }

func TestStoreFailures(t *testing.T) {
	s := newTestSite(t, jobscope.WithContentStore(brokenStore{}))

	rec := s.get("/blog/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")

	rec = s.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `jobscope_http_requests_total{method="GET",route="/blog/",status="500"} 1`)
	assert.NotContains(t, rec.Body.String(), `route="/blog/",status="200"`)

	s.login()
	rec = s.get("/admin/")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load posts.")

	rec = s.post("/admin/save/", postForm(s.csrf()))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to save post. Please try again.")
}
