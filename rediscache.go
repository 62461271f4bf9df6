package jobscope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// PostsCacheKey holds the JSON-encoded post listing.
const PostsCacheKey = "jobscope:posts:all"

// RedisCache keeps the post listing in Redis so several server processes share
// one cache. Redis failures fall through to the store.
type RedisCache struct {
	client *redis.Client
	store  ContentStore
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisCache creates a RedisCache in front of store.
func NewRedisCache(client *redis.Client, store ContentStore, ttl time.Duration, log *slog.Logger) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{client: client, store: store, ttl: ttl, log: log}
}

// NewRedisClient parses addr, which may be a redis:// URL or host:port, and
// checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) load(ctx context.Context) ([]Post, error) {
	raw, err := c.client.Get(ctx, PostsCacheKey).Bytes()
	switch {
	case err == nil:
		var posts []Post
		if err := json.Unmarshal(raw, &posts); err == nil {
			return posts, nil
		}
		c.log.WarnContext(ctx, "discarding undecodable post cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "redis get failed, reading store", slog.String("error", err.Error()))
	}

	posts, err := c.store.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(posts); err == nil {
		if err := c.client.Set(ctx, PostsCacheKey, b, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "redis set failed", slog.String("error", err.Error()))
		}
	}
	return posts, nil
}

// List returns posts, newest first, truncated to opts.Limit.
func (c *RedisCache) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	posts, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return limitPosts(posts, opts.Limit), nil
}

// GetBySlug returns a single post from the cached listing.
func (c *RedisCache) GetBySlug(ctx context.Context, slug string) (Post, error) {
	posts, err := c.load(ctx)
	if err != nil {
		return Post{}, err
	}
	return findBySlug(posts, slug)
}

// Invalidate drops the cached listing.
func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, PostsCacheKey).Err(); err != nil {
		c.log.WarnContext(ctx, "redis invalidate failed", slog.String("error", err.Error()))
	}
}
