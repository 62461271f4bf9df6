package jobscope

import "context"

// ListOptions narrows a post listing. A zero Limit returns every post.
type ListOptions struct {
	Limit int
}

// ContentStore is the persistence capability the site is built on. Listings
// are ordered by published date, newest first.
type ContentStore interface {
	List(ctx context.Context, opts ListOptions) ([]Post, error)
	GetBySlug(ctx context.Context, slug string) (Post, error)
	GetByID(ctx context.Context, id string) (Post, error)
	Create(ctx context.Context, f PostFields) (Post, error)
	Update(ctx context.Context, id string, f PostFields) (Post, error)
	Delete(ctx context.Context, id string) error
}
