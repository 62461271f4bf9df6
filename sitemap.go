package jobscope

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

// sitemapURLs lists the home page, the blog index and every post. A post
// with a canonical URL elsewhere is left out.
func (a *App) sitemapURLs(posts []Post) []sitemapURL {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base, "/"), ChangeFreq: "daily"},
		{Loc: BuildURL(base, "blog"), ChangeFreq: "daily"},
	}
	for _, p := range posts {
		loc := BuildURL(base, "blog", p.Slug)
		if p.CanonicalURL != "" && p.CanonicalURL != loc {
			continue
		}
		mod := p.UpdatedAt
		if mod.IsZero() {
			mod = p.PublishedDate
		}
		urls = append(urls, sitemapURL{
			Loc:     loc,
			LastMod: mod.UTC().Format(dateLayout),
		})
	}
	return urls
}

func (a *App) renderSitemap(c echo.Context, posts []Post) error {
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  a.sitemapURLs(posts),
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
