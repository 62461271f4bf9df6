package jobscope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var seedTags = []string{
	"career", "jobs", "india", "remote work", "interview tips",
	"resume", "salary", "technology", "freshers", "hiring trends",
}

// seedEnd anchors generated publish dates so a seed is reproducible.
var seedEnd = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)

// SeedPosts writes n generated posts for local development, published over
// the year before seedEnd. The same seed always produces the same posts;
// slugs that already exist are skipped.
func SeedPosts(ctx context.Context, store ContentStore, n int, seed int64) ([]Post, error) {
	f := gofakeit.New(seed)
	end := seedEnd
	start := end.AddDate(-1, 0, 0)

	var created []Post
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s: %s", f.JobTitle(), strings.TrimSuffix(f.Sentence(6), "."))
		paras := make([]string, 0, 4)
		for j := 0; j < 4; j++ {
			paras = append(paras, f.Paragraph(1, 4, 12, " "))
		}
		content := "## " + f.JobDescriptor() + " roles in " + f.City() + "\n\n" +
			strings.Join(paras, "\n\n") + "\n\n- " + f.Word() + "\n- " + f.Word() + "\n"

		tags := make([]string, 0, 3)
		for len(tags) < 1+i%3 {
			t := f.RandomString(seedTags)
			if !containsFold(tags, t) {
				tags = append(tags, t)
			}
		}

		date := f.DateRange(start, end)
		fields := PostFields{
			Title:           title,
			Slug:            Slugify(title),
			Content:         content,
			ContentType:     ContentMarkdown,
			SEOTitle:        title,
			MetaDescription: strings.TrimSpace(f.Sentence(18)),
			FocusKeywords:   strings.Join(tags, ", "),
			Tags:            tags,
			PublishedDate:   time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		}
		if err := fields.Validate(); err != nil {
			return created, fmt.Errorf("seed post %d: %w", i, err)
		}
		p, err := store.Create(ctx, fields)
		if errors.Is(err, ErrSlugTaken) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed post %d: %w", i, err)
		}
		created = append(created, p)
	}
	return created, nil
}

func containsFold(vals []string, s string) bool {
	for _, v := range vals {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
