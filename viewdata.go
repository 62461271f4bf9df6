package jobscope

import (
	"time"

	"github.com/a-h/templ"
)

// ViewFuncs holds the templ components the App renders pages with. The views
// package provides the stock set; callers may swap any of them.
type ViewFuncs struct {
	Home               func(HomeData) templ.Component
	Blog               func(BlogData) templ.Component
	Post               func(PostData) templ.Component
	AdminLogin         func(AdminData) templ.Component
	AdminDashboard     func(AdminData) templ.Component
	AdminConfirmDelete func(AdminData) templ.Component
	AdminImages        func(ImagesData) templ.Component
	NotFound           func(PageData) templ.Component
	ServerError        func(PageData) templ.Component
}

// PageData is shared by every page: site settings for the layout and the
// SEO metadata for <head>.
type PageData struct {
	Site SiteConfig
	Meta PageMeta
	Year int
}

// HomeData renders the landing page.
type HomeData struct {
	PageData
	Recent []Post
}

// BlogData renders the listing with its search box and tag chips.
type BlogData struct {
	PageData
	Posts []Post
	Query string
	Tag   string
	Tags  []string
	Total int
}

// Filtered reports whether a search or tag narrowed the listing.
func (d BlogData) Filtered() bool {
	return d.Query != "" || d.Tag != ""
}

// PostData renders a single article.
type PostData struct {
	PageData
	Post        Post
	ReadingTime int
	Related     []Post
	Share       []ShareLink
}

// AdminData renders the admin login, dashboard and delete confirmation.
type AdminData struct {
	PageData
	State     AdminState
	CSRFToken string
	Images    []Image
}

// ImagesData renders the OG image library.
type ImagesData struct {
	PageData
	Images    []Image
	CSRFToken string
	Notice    *Notice
}

// Image is an uploaded Open Graph image under the uploads directory.
type Image struct {
	Filename   string
	URL        string
	Width      int
	Height     int
	Size       int64
	UploadedAt time.Time
}

func (a *App) page(meta PageMeta) PageData {
	return PageData{Site: a.Config, Meta: meta, Year: time.Now().Year()}
}
