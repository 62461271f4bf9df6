package jobscope

import (
	"context"
	"sync"
	"time"
)

// PostReader is the read path used by public pages. Implementations cache the
// full post listing and must be invalidated after every write.
type PostReader interface {
	List(ctx context.Context, opts ListOptions) ([]Post, error)
	GetBySlug(ctx context.Context, slug string) (Post, error)
	Invalidate(ctx context.Context)
}

// PostCache is an in-memory cache of the post listing with a TTL.
type PostCache struct {
	mu      sync.RWMutex
	posts   []Post
	loaded  bool
	fetched time.Time
	ttl     time.Duration
	store   ContentStore
}

// NewPostCache creates a PostCache backed by the given store.
func NewPostCache(s ContentStore, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate(context.Context) {
	c.mu.Lock()
	c.posts = nil
	c.loaded = false
	c.mu.Unlock()
}

// ensureLoaded returns the cached listing after making sure it is fresh.
// It tries a read lock first and only takes the write lock to reload.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]Post, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	posts, err := c.store.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.loaded = true
	c.fetched = time.Now()
	return posts, nil
}

// List returns cached posts, newest first, truncated to opts.Limit.
func (c *PostCache) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return limitPosts(posts, opts.Limit), nil
}

// GetBySlug returns a single post from the cached listing.
func (c *PostCache) GetBySlug(ctx context.Context, slug string) (Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return Post{}, err
	}
	return findBySlug(posts, slug)
}

func limitPosts(posts []Post, limit int) []Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

func findBySlug(posts []Post, slug string) (Post, error) {
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}
