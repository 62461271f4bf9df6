package jobscope

import "time"

// ContentType selects how a post body is rendered.
type ContentType string

const (
	ContentMarkdown ContentType = "markdown"
	ContentHTML     ContentType = "html"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	return t == ContentMarkdown || t == ContentHTML
}

// Post is a blog article stored in the blog_posts table.
type Post struct {
	ID              string
	Title           string
	Slug            string
	Content         string
	ContentType     ContentType
	SEOTitle        string
	MetaDescription string
	FocusKeywords   string
	CanonicalURL    string
	OGImageURL      string
	Tags            []string
	PublishedDate   time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PostFields are the mutable columns of a post, as written by create and update.
type PostFields struct {
	Title           string
	Slug            string
	Content         string
	ContentType     ContentType
	SEOTitle        string
	MetaDescription string
	FocusKeywords   string
	CanonicalURL    string
	OGImageURL      string
	Tags            []string
	PublishedDate   time.Time
}

// Fields returns the mutable part of p.
func (p Post) Fields() PostFields {
	return PostFields{
		Title:           p.Title,
		Slug:            p.Slug,
		Content:         p.Content,
		ContentType:     p.ContentType,
		SEOTitle:        p.SEOTitle,
		MetaDescription: p.MetaDescription,
		FocusKeywords:   p.FocusKeywords,
		CanonicalURL:    p.CanonicalURL,
		OGImageURL:      p.OGImageURL,
		Tags:            p.Tags,
		PublishedDate:   p.PublishedDate,
	}
}

// Link is the site-relative URL of the post.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// PageMeta carries per-page SEO metadata into the <head> template.
type PageMeta struct {
	Title          string
	Description    string
	Keywords       string
	Canonical      string // canonical link, empty to omit
	URL            string // og:url
	OGType         string // "website" or "article"
	OGImage        string
	SiteName       string
	StructuredData string // JSON-LD, empty to omit
}
