package jobscope

import "strings"

// MaxTagChips caps the tag vocabulary offered on the listing page.
const MaxTagChips = 8

// FilterPosts returns the posts matching both the free-text query and the
// selected tag. The query matches case-insensitively against the title, meta
// description and tags; an empty query or tag matches everything. Order is kept.
func FilterPosts(posts []Post, query, tag string) []Post {
	q := strings.ToLower(strings.TrimSpace(query))
	tag = strings.TrimSpace(tag)
	var out []Post
	for _, p := range posts {
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p Post, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.MetaDescription), q) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// TagVocabulary returns the distinct tags of posts in order of first
// appearance, at most max of them. Tags differing only in case count once.
func TagVocabulary(posts []Post, max int) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, p := range posts {
		for _, t := range p.Tags {
			key := normalizeTag(t)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			if max > 0 && len(tags) >= max {
				return tags
			}
			seen[key] = struct{}{}
			tags = append(tags, strings.TrimSpace(t))
		}
	}
	return tags
}

// FilterRelatedPosts finds up to limit posts that share at least one tag with current.
func FilterRelatedPosts(current Post, posts []Post, limit int) []Post {
	var related []Post
	for _, p := range posts {
		if p.ID == current.ID || p.Slug == current.Slug {
			continue
		}
		for _, t := range p.Tags {
			if current.HasTag(t) {
				related = append(related, p)
				break
			}
		}
		if limit > 0 && len(related) >= limit {
			break
		}
	}
	return related
}
