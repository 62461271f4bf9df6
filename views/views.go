// Package views holds the stock page templates. Pages are html/template files
// embedded in the binary and exposed as templ components, so the app renders
// them the same way as any hand-written templ view.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/jobscopeindia/jobscope"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/partials.html"))
	for _, name := range []string{
		"home", "blog", "post", "notfound", "servererror",
		"admin_login", "admin_dashboard", "admin_confirm", "admin_images",
	} {
		t := template.Must(base.Clone())
		pages[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
}

func page(name string, data any) templ.Component {
	return templ.FromGoHTML(pages[name].Lookup("layout"), data)
}

// Funcs returns the stock view set.
func Funcs() jobscope.ViewFuncs {
	return jobscope.ViewFuncs{
		Home:               func(d jobscope.HomeData) templ.Component { return page("home", d) },
		Blog:               func(d jobscope.BlogData) templ.Component { return page("blog", d) },
		Post:               func(d jobscope.PostData) templ.Component { return page("post", d) },
		AdminLogin:         func(d jobscope.AdminData) templ.Component { return page("admin_login", d) },
		AdminDashboard:     func(d jobscope.AdminData) templ.Component { return page("admin_dashboard", d) },
		AdminConfirmDelete: func(d jobscope.AdminData) templ.Component { return page("admin_confirm", d) },
		AdminImages:        func(d jobscope.ImagesData) templ.Component { return page("admin_images", d) },
		NotFound:           func(d jobscope.PageData) templ.Component { return page("notfound", d) },
		ServerError:        func(d jobscope.PageData) templ.Component { return page("servererror", d) },
	}
}
