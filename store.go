package jobscope

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000Z"

const postColumns = `id, title, slug, content, content_type, seo_title, meta_description,
	focus_keywords, canonical_url, og_image_url, tags, published_date, created_at, updated_at`

// Store wraps a SQLite database and implements ContentStore over the
// blog_posts table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during a write; the busy timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := NewStoreWithDB(db)
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// NewStoreWithDB wraps an already opened database without touching its schema.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blog_posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT 'markdown',
    seo_title TEXT NOT NULL DEFAULT '',
    meta_description TEXT NOT NULL,
    focus_keywords TEXT NOT NULL,
    canonical_url TEXT NOT NULL DEFAULT '',
    og_image_url TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    published_date TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blog_posts_published_date ON blog_posts(published_date DESC);
`)
	return err
}

// List returns posts ordered by published date descending, newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts ORDER BY published_date DESC, created_at DESC`
	var args []any
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list posts: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list posts: %w", err)
	}
	return posts, nil
}

// GetBySlug returns the post with the given slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = ? LIMIT 1`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("store: get post %q: %w", slug, err)
	}
	return p, nil
}

// GetByID returns the post with the given id.
func (s *Store) GetByID(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("store: get post by id %q: %w", id, err)
	}
	return p, nil
}

// Create inserts a new post. The store assigns the id and timestamps.
func (s *Store) Create(ctx context.Context, f PostFields) (Post, error) {
	tags, err := encodeTags(f.Tags)
	if err != nil {
		return Post{}, err
	}
	now := s.now().UTC()
	p := Post{
		ID:              uuid.NewString(),
		Title:           f.Title,
		Slug:            f.Slug,
		Content:         f.Content,
		ContentType:     f.ContentType,
		SEOTitle:        f.SEOTitle,
		MetaDescription: f.MetaDescription,
		FocusKeywords:   f.FocusKeywords,
		CanonicalURL:    f.CanonicalURL,
		OGImageURL:      f.OGImageURL,
		Tags:            FilterEmpty(f.Tags),
		PublishedDate:   f.PublishedDate.UTC(),
		CreatedAt:       now.Truncate(time.Millisecond),
		UpdatedAt:       now.Truncate(time.Millisecond),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO blog_posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Content, string(p.ContentType), p.SEOTitle, p.MetaDescription,
		p.FocusKeywords, p.CanonicalURL, p.OGImageURL, tags,
		formatTime(p.PublishedDate), formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, fmt.Errorf("store: create post: %w", err)
	}
	return p, nil
}

// Update overwrites the mutable fields of the post with the given id.
func (s *Store) Update(ctx context.Context, id string, f PostFields) (Post, error) {
	tags, err := encodeTags(f.Tags)
	if err != nil {
		return Post{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE blog_posts SET
		title = ?, slug = ?, content = ?, content_type = ?, seo_title = ?, meta_description = ?,
		focus_keywords = ?, canonical_url = ?, og_image_url = ?, tags = ?, published_date = ?,
		updated_at = ?
		WHERE id = ?`,
		f.Title, f.Slug, f.Content, string(f.ContentType), f.SEOTitle, f.MetaDescription,
		f.FocusKeywords, f.CanonicalURL, f.OGImageURL, tags, formatTime(f.PublishedDate.UTC()),
		formatTime(s.now().UTC()), id)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, fmt.Errorf("store: update post %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, fmt.Errorf("store: update post %q: %w", id, err)
	}
	if n == 0 {
		return Post{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes a post by id. There is no soft delete.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete post %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete post %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (Post, error) {
	var (
		p                               Post
		contentType, tags               string
		published, createdAt, updatedAt string
	)
	err := r.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &contentType, &p.SEOTitle,
		&p.MetaDescription, &p.FocusKeywords, &p.CanonicalURL, &p.OGImageURL, &tags,
		&published, &createdAt, &updatedAt)
	if err != nil {
		return Post{}, err
	}
	p.ContentType = ContentType(contentType)
	if !p.ContentType.Valid() {
		p.ContentType = ContentMarkdown
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return Post{}, fmt.Errorf("decode tags: %w", err)
	}
	p.Tags = FilterEmpty(p.Tags)
	if p.PublishedDate, err = parseTime(published); err != nil {
		return Post{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Post{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Post{}, err
	}
	return p, nil
}

func encodeTags(tags []string) (string, error) {
	clean := FilterEmpty(tags)
	if clean == nil {
		clean = []string{}
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may carry plain RFC 3339.
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
