package jobscope

import "strings"

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters and
// digits, with every other run of characters collapsed to a single hyphen.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// IsValidSlug reports whether s is already in Slugify's output form.
func IsValidSlug(s string) bool {
	return s != "" && Slugify(s) == s
}

// SyncSlug applies the auto-derive policy for the admin form. The slug follows
// the title while it is empty or still equal to the slug derived from the
// previous title; once edited by hand it is left alone.
func SyncSlug(prevTitle, title, slug string) string {
	if slug == "" || slug == Slugify(prevTitle) {
		return Slugify(title)
	}
	return slug
}
