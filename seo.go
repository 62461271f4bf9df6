package jobscope

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"
)

// Site-wide asset paths used when a post has no image of its own.
const (
	DefaultOGImage = "/og-image.jpg"
	PublisherLogo  = "/icon-192.png"
)

const siteTagline = "Career Insights & Job Market Trends"

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsURL resolves ref against base. Absolute refs are returned unchanged.
func AbsURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// DefaultMeta describes the home page.
func DefaultMeta(cfg SiteConfig) PageMeta {
	home := BuildURL(cfg.URL, "/")
	return PageMeta{
		Title:          cfg.Name + " - " + siteTagline,
		Description:    cfg.Description,
		Keywords:       cfg.Keywords,
		URL:            home,
		OGType:         "website",
		OGImage:        AbsURL(cfg.URL, DefaultOGImage),
		SiteName:       cfg.Name,
		StructuredData: WebsiteJSONLD(cfg),
	}
}

// BlogIndexMeta describes the blog listing page.
func BlogIndexMeta(cfg SiteConfig) PageMeta {
	m := DefaultMeta(cfg)
	m.Title = "Blog - " + cfg.Name + " | " + siteTagline
	m.Description = "Read the latest career insights, job market analysis, and professional development tips for India's workforce."
	m.URL = BuildURL(cfg.URL, "blog")
	m.StructuredData = BlogJSONLD(cfg)
	return m
}

// PostMeta describes a single post. The canonical URL is the post's own
// unless it names another one, and the image falls back to the site default.
func PostMeta(cfg SiteConfig, p Post) PageMeta {
	postURL := BuildURL(cfg.URL, "blog", p.Slug)
	canonical := strings.TrimSpace(p.CanonicalURL)
	if canonical == "" {
		canonical = postURL
	}
	return PageMeta{
		Title:          p.DisplayTitle(),
		Description:    p.MetaDescription,
		Keywords:       p.FocusKeywords,
		Canonical:      canonical,
		URL:            canonical,
		OGType:         "article",
		OGImage:        postImage(cfg, p),
		SiteName:       cfg.Name,
		StructuredData: BlogPostingJSONLD(cfg, p),
	}
}

// PageTitleMeta is used for pages without their own SEO data (admin, errors).
func PageTitleMeta(cfg SiteConfig, title string) PageMeta {
	m := DefaultMeta(cfg)
	m.Title = title + " - " + cfg.Name
	m.StructuredData = ""
	return m
}

func postImage(cfg SiteConfig, p Post) string {
	img := strings.TrimSpace(p.OGImageURL)
	if img == "" {
		img = DefaultOGImage
	}
	return AbsURL(cfg.URL, img)
}

func organization(cfg SiteConfig) map[string]any {
	return map[string]any{
		"@type": "Organization",
		"name":  cfg.Name,
	}
}

// WebsiteJSONLD returns a Schema.org WebSite block for the home page.
func WebsiteJSONLD(cfg SiteConfig) string {
	return marshalJSONLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"description": cfg.Description,
		"url":         BuildURL(cfg.URL, "/"),
		"publisher":   organization(cfg),
	})
}

// BlogJSONLD returns a Schema.org Blog block for the listing page.
func BlogJSONLD(cfg SiteConfig) string {
	return marshalJSONLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Blog",
		"name":        cfg.Name + " Blog",
		"description": cfg.Description,
		"url":         BuildURL(cfg.URL, "blog"),
		"publisher":   organization(cfg),
	})
}

// BlogPostingJSONLD returns a Schema.org BlogPosting block for a post.
func BlogPostingJSONLD(cfg SiteConfig, p Post) string {
	postURL := BuildURL(cfg.URL, "blog", p.Slug)
	publisher := organization(cfg)
	publisher["logo"] = map[string]string{
		"@type": "ImageObject",
		"url":   AbsURL(cfg.URL, PublisherLogo),
	}
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"description":   p.MetaDescription,
		"image":         postImage(cfg, p),
		"author":        organization(cfg),
		"publisher":     publisher,
		"datePublished": p.PublishedDate.UTC().Format(time.RFC3339),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !p.UpdatedAt.IsZero() {
		data["dateModified"] = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if p.FocusKeywords != "" {
		data["keywords"] = p.FocusKeywords
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ShareLink is one social share target.
type ShareLink struct {
	Name string
	URL  string
}

// ShareText is the message prefilled in share dialogs.
func ShareText(title, description string) string {
	if description == "" {
		return title
	}
	return title + " - " + description
}

// ShareLinks builds the WhatsApp and Telegram share URLs for a page.
func ShareLinks(pageURL, title, description string) []ShareLink {
	text := ShareText(title, description)
	return []ShareLink{
		{
			Name: "WhatsApp",
			URL:  "https://wa.me/?text=" + url.QueryEscape(text+" "+pageURL),
		},
		{
			Name: "Telegram",
			URL:  "https://t.me/share/url?url=" + url.QueryEscape(pageURL) + "&text=" + url.QueryEscape(text),
		},
	}
}
