package jobscope

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken is returned when a create or update collides with another post's slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// ValidationError reports a required or malformed post field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// DisplayTitle is the title shown in the browser and to search engines.
// It falls back to Title when no SEO title is set.
func (p Post) DisplayTitle() string {
	if t := strings.TrimSpace(p.SEOTitle); t != "" {
		return t
	}
	return p.Title
}

// HasTag reports whether the post carries tag, ignoring case.
func (p Post) HasTag(tag string) bool {
	tag = normalizeTag(tag)
	for _, t := range p.Tags {
		if normalizeTag(t) == tag {
			return true
		}
	}
	return false
}

// ParseTags splits comma-separated input into trimmed, non-empty tags.
func ParseTags(input string) []string {
	return FilterEmpty(strings.Split(input, ","))
}

// FilterEmpty removes empty/whitespace-only strings from a slice and trims the rest.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinTags joins tags with ", " for form fields.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// Validate checks the fields every stored post must carry.
func (f PostFields) Validate() error {
	required := []struct {
		name, val string
	}{
		{"title", f.Title},
		{"slug", f.Slug},
		{"content", f.Content},
		{"meta_description", f.MetaDescription},
		{"focus_keywords", f.FocusKeywords},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return &ValidationError{Field: r.name, Msg: "is required"}
		}
	}
	if !IsValidSlug(f.Slug) {
		return &ValidationError{Field: "slug", Msg: "must contain only a-z, 0-9 and single hyphens"}
	}
	if !f.ContentType.Valid() {
		return &ValidationError{Field: "content_type", Msg: "must be markdown or html"}
	}
	if f.PublishedDate.IsZero() {
		return &ValidationError{Field: "published_date", Msg: "is required"}
	}
	for _, t := range f.Tags {
		if strings.TrimSpace(t) == "" {
			return &ValidationError{Field: "tags", Msg: "must not contain empty tags"}
		}
	}
	return nil
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
