// Package markdown turns post bodies into safe HTML fragments. Markdown is
// rendered with goldmark (CommonMark plus GitHub tables, strikethrough,
// autolinks and task lists); raw HTML bodies are passed through as-is. Both
// paths end in the same sanitizer, so stored content can never inject script.
package markdown

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"regexp"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Formats understood by Render. They match the stored content_type values.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Inline HTML is kept here and cleaned by policy below.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	p.AllowAttrs("loading").Matching(regexp.MustCompile(`^(lazy|eager)$`)).OnElements("img")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips scripts, event handlers and unsafe URLs from raw markup.
func Sanitize(content string) template.HTML {
	return template.HTML(policy.Sanitize(content))
}

// ToHTML renders Markdown to sanitized HTML.
func ToHTML(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// Render returns the safe HTML for content in the given format. Any format
// other than FormatHTML is treated as Markdown.
func Render(content, format string) template.HTML {
	if format == FormatHTML {
		return Sanitize(content)
	}
	out, err := ToHTML(content)
	if err != nil {
		// goldmark only fails on writer errors; fall back to escaped text.
		return template.HTML("<p>" + template.HTMLEscapeString(content) + "</p>")
	}
	return out
}

// Component returns a templ.Component that writes Render(content, format).
func Component(content, format string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, string(Render(content, format)))
		return err
	})
}
