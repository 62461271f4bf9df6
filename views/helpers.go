package views

import (
	"html/template"
	"net/url"
	"time"

	"github.com/jobscopeindia/jobscope"
	"github.com/jobscopeindia/jobscope/markdown"
)

// cardTags is how many tags a post card shows before "+N more".
const cardTags = 3

var funcs = template.FuncMap{
	"displayDate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006")
	},
	"isoDate": func(t time.Time) string {
		return t.UTC().Format("2006-01-02")
	},
	"body": func(p jobscope.Post) template.HTML {
		return markdown.Render(p.Content, string(p.ContentType))
	},
	// jsonLD marks generated JSON-LD as safe for a script element.
	"jsonLD": func(s string) template.JS {
		return template.JS(s)
	},
	"headTags": func(tags []string) []string {
		if len(tags) > cardTags {
			return tags[:cardTags]
		}
		return tags
	},
	"moreTags": func(tags []string) int {
		if len(tags) > cardTags {
			return len(tags) - cardTags
		}
		return 0
	},
	"blogURL":    blogURL,
	"pathEscape": url.PathEscape,
	"joinTags":   jobscope.JoinTags,
}

// blogURL builds a listing link for a search query and tag. Empty values are
// left out so the unfiltered listing is plain /blog/.
func blogURL(query, tag string) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if tag != "" {
		v.Set("tag", tag)
	}
	if len(v) == 0 {
		return "/blog/"
	}
	return "/blog/?" + v.Encode()
}
