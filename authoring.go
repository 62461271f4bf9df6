package jobscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidPIN is returned by PINGate.Check when the PIN does not match.
var ErrInvalidPIN = errors.New("invalid PIN")

// dateLayout is the form representation of a published date.
const dateLayout = "2006-01-02"

// midnightUTC is appended to a form date to build the stored timestamp.
const midnightUTC = "T00:00:00.000Z"

// PINGate guards the admin console with a single shared PIN. Only the bcrypt
// hash is kept in memory.
type PINGate struct {
	hash []byte
}

// NewPINGate hashes pin for later comparison.
func NewPINGate(pin string) (*PINGate, error) {
	if pin == "" {
		return nil, errors.New("admin PIN is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin PIN: %w", err)
	}
	return &PINGate{hash: hash}, nil
}

// Check returns ErrInvalidPIN unless pin matches.
func (g *PINGate) Check(pin string) error {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(pin)); err != nil {
		return ErrInvalidPIN
	}
	return nil
}

// Draft is the admin form as submitted: every field is raw text.
// SlugSource is the title the current slug was last derived from.
type Draft struct {
	ID              string
	Title           string
	Slug            string
	SlugSource      string
	Content         string
	ContentType     string
	SEOTitle        string
	MetaDescription string
	FocusKeywords   string
	CanonicalURL    string
	OGImageURL      string
	Tags            string
	PublishedDate   string
}

// NewDraft returns an empty form dated today.
func NewDraft(today time.Time) Draft {
	return Draft{
		ContentType:   string(ContentMarkdown),
		PublishedDate: today.UTC().Format(dateLayout),
	}
}

// DraftFromPost fills the form from a stored post for editing.
func DraftFromPost(p Post) Draft {
	return Draft{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		SlugSource:      p.Title,
		Content:         p.Content,
		ContentType:     string(p.ContentType),
		SEOTitle:        p.SEOTitle,
		MetaDescription: p.MetaDescription,
		FocusKeywords:   p.FocusKeywords,
		CanonicalURL:    p.CanonicalURL,
		OGImageURL:      p.OGImageURL,
		Tags:            JoinTags(p.Tags),
		PublishedDate:   p.PublishedDate.UTC().Format(dateLayout),
	}
}

// Normalize turns the raw form into validated post fields. Tags are split
// on commas, a blank SEO title falls back to the title, and the published
// date is stored as midnight UTC of the chosen day (today when blank).
func (d Draft) Normalize(today time.Time) (PostFields, error) {
	title := strings.TrimSpace(d.Title)
	slug := SyncSlug(strings.TrimSpace(d.SlugSource), title, strings.TrimSpace(d.Slug))
	if !IsValidSlug(slug) {
		slug = Slugify(slug)
	}

	seoTitle := strings.TrimSpace(d.SEOTitle)
	if seoTitle == "" {
		seoTitle = title
	}

	contentType := ContentType(strings.TrimSpace(d.ContentType))
	if contentType == "" {
		contentType = ContentMarkdown
	}

	date := strings.TrimSpace(d.PublishedDate)
	if date == "" {
		date = today.UTC().Format(dateLayout)
	}
	published, err := time.Parse(timeLayout, date+midnightUTC)
	if err != nil {
		return PostFields{}, &ValidationError{Field: "published_date", Msg: "must be a date in YYYY-MM-DD form"}
	}

	f := PostFields{
		Title:           title,
		Slug:            slug,
		Content:         d.Content,
		ContentType:     contentType,
		SEOTitle:        seoTitle,
		MetaDescription: strings.TrimSpace(d.MetaDescription),
		FocusKeywords:   strings.TrimSpace(d.FocusKeywords),
		CanonicalURL:    strings.TrimSpace(d.CanonicalURL),
		OGImageURL:      strings.TrimSpace(d.OGImageURL),
		Tags:            ParseTags(d.Tags),
		PublishedDate:   published,
	}
	if err := f.Validate(); err != nil {
		return PostFields{}, err
	}
	return f, nil
}

// Notice is a one-shot message shown at the top of the admin page.
type Notice struct {
	Title  string
	Detail string
	Error  bool
}

// AdminState is everything the admin page renders from.
type AdminState struct {
	Authenticated   bool
	Posts           []Post
	ListLoaded      bool
	Draft           Draft
	PendingDeleteID string
	Notice          *Notice
}

// Editing reports whether the form holds an existing post.
func (s AdminState) Editing() bool {
	return s.Draft.ID != ""
}

// PendingDelete returns the listed post awaiting delete confirmation, or nil.
func (s AdminState) PendingDelete() *Post {
	if s.PendingDeleteID == "" {
		return nil
	}
	for i := range s.Posts {
		if s.Posts[i].ID == s.PendingDeleteID {
			return &s.Posts[i]
		}
	}
	return nil
}

// Event is an input to Console.Dispatch.
type Event interface {
	adminEvent()
}

type (
	// PINSubmitted attempts to unlock the console.
	PINSubmitted struct{ PIN string }
	// ListRequested fetches every post; it is followed by ListLoaded or ListFailed.
	ListRequested struct{}
	ListLoaded    struct{ Posts []Post }
	ListFailed    struct{ Err error }
	// EditSelected loads a post into the form.
	EditSelected struct{ ID string }
	FormReset    struct{}
	// DraftSubmitted creates a post when Draft.ID is empty and updates it otherwise.
	DraftSubmitted struct{ Draft Draft }
	// DeleteRequested only marks the post; nothing is removed until DeleteConfirmed.
	DeleteRequested struct{ ID string }
	DeleteConfirmed struct{}
	DeleteCancelled struct{}
)

func (PINSubmitted) adminEvent()    {}
func (ListRequested) adminEvent()   {}
func (ListLoaded) adminEvent()      {}
func (ListFailed) adminEvent()      {}
func (EditSelected) adminEvent()    {}
func (FormReset) adminEvent()       {}
func (DraftSubmitted) adminEvent()  {}
func (DeleteRequested) adminEvent() {}
func (DeleteConfirmed) adminEvent() {}
func (DeleteCancelled) adminEvent() {}

const (
	msgInvalidPIN   = "Invalid PIN. Please try again."
	msgSaveFailed   = "Failed to save post. Please try again."
	msgDeleteFailed = "Failed to delete post."
	msgListFailed   = "Failed to load posts."
	msgSlugTaken    = "A post with this slug already exists."
	msgPostNotFound = "Post not found."
)

var fieldLabels = map[string]string{
	"title":            "Title",
	"slug":             "Slug",
	"content":          "Content",
	"content_type":     "Content type",
	"meta_description": "Meta description",
	"focus_keywords":   "Focus keywords",
	"published_date":   "Published date",
	"tags":             "Tags",
}

// Console is the admin authoring workflow. It owns a single AdminState and
// changes it only through Dispatch.
type Console struct {
	store ContentStore
	gate  *PINGate
	cache PostReader
	log   *slog.Logger
	now   func() time.Time
	state AdminState
}

// NewConsole creates a console. cache may be nil; when set it is invalidated
// after every successful write.
func NewConsole(store ContentStore, gate *PINGate, cache PostReader, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	c := &Console{store: store, gate: gate, cache: cache, log: log, now: time.Now}
	c.state.Draft = NewDraft(c.now())
	return c
}

// Resume restores the authentication flag carried by the session cookie.
func (c *Console) Resume(authenticated bool) *Console {
	c.state.Authenticated = authenticated
	return c
}

// State returns the current state.
func (c *Console) State() AdminState {
	return c.state
}

// Dispatch applies ev and returns the resulting state. While the console is
// locked every event except PINSubmitted is ignored.
func (c *Console) Dispatch(ctx context.Context, ev Event) AdminState {
	if _, ok := ev.(PINSubmitted); !ok && !c.state.Authenticated {
		return c.state
	}

	switch ev := ev.(type) {
	case PINSubmitted:
		if err := c.gate.Check(ev.PIN); err != nil {
			c.state.Notice = &Notice{Title: "Login Failed", Detail: msgInvalidPIN, Error: true}
			return c.state
		}
		c.state.Authenticated = true
		c.state.Notice = &Notice{Title: "Login Successful", Detail: "Welcome to the admin panel!"}
		return c.Dispatch(ctx, ListRequested{})

	case ListRequested:
		posts, err := c.store.List(ctx, ListOptions{})
		if err != nil {
			return c.Dispatch(ctx, ListFailed{Err: err})
		}
		return c.Dispatch(ctx, ListLoaded{Posts: posts})

	case ListLoaded:
		c.state.Posts = ev.Posts
		c.state.ListLoaded = true

	case ListFailed:
		c.log.ErrorContext(ctx, "admin list posts", slog.String("error", ev.Err.Error()))
		c.state.ListLoaded = false
		// An earlier failure in the same request is the more useful message.
		if c.state.Notice == nil || !c.state.Notice.Error {
			c.state.Notice = &Notice{Title: "Error", Detail: msgListFailed, Error: true}
		}

	case EditSelected:
		p, err := c.store.GetByID(ctx, ev.ID)
		if err != nil {
			detail := msgPostNotFound
			if !errors.Is(err, ErrNotFound) {
				c.log.ErrorContext(ctx, "admin load post", slog.String("id", ev.ID), slog.String("error", err.Error()))
				detail = msgListFailed
			}
			c.state.Notice = &Notice{Title: "Error", Detail: detail, Error: true}
			return c.state
		}
		c.state.Draft = DraftFromPost(p)

	case FormReset:
		c.state.Draft = NewDraft(c.now())

	case DraftSubmitted:
		return c.submit(ctx, ev.Draft)

	case DeleteRequested:
		c.state.PendingDeleteID = ev.ID

	case DeleteCancelled:
		c.state.PendingDeleteID = ""

	case DeleteConfirmed:
		id := c.state.PendingDeleteID
		if id == "" {
			return c.state
		}
		if err := c.store.Delete(ctx, id); err != nil {
			c.log.ErrorContext(ctx, "admin delete post", slog.String("id", id), slog.String("error", err.Error()))
			c.state.Notice = &Notice{Title: "Error", Detail: msgDeleteFailed, Error: true}
			return c.state
		}
		c.log.InfoContext(ctx, "post deleted", slog.String("id", id))
		c.state.PendingDeleteID = ""
		if c.state.Draft.ID == id {
			c.state.Draft = NewDraft(c.now())
		}
		c.invalidate(ctx)
		c.state.Notice = &Notice{Title: "Post Deleted", Detail: "Blog post has been deleted successfully!"}
		return c.Dispatch(ctx, ListRequested{})
	}
	return c.state
}

func (c *Console) submit(ctx context.Context, d Draft) AdminState {
	c.state.Draft = d
	fields, err := d.Normalize(c.now())
	if err != nil {
		c.state.Notice = &Notice{Title: "Error", Detail: validationMessage(err), Error: true}
		return c.state
	}

	var (
		saved  Post
		notice Notice
	)
	if d.ID == "" {
		saved, err = c.store.Create(ctx, fields)
		notice = Notice{Title: "Post Created", Detail: "Blog post has been created successfully!"}
	} else {
		saved, err = c.store.Update(ctx, d.ID, fields)
		notice = Notice{Title: "Post Updated", Detail: "Blog post has been updated successfully!"}
	}
	if err != nil {
		detail := msgSaveFailed
		if errors.Is(err, ErrSlugTaken) {
			detail = msgSlugTaken
		} else {
			c.log.ErrorContext(ctx, "admin save post", slog.String("id", d.ID), slog.String("error", err.Error()))
		}
		c.state.Draft.Slug = fields.Slug
		if fields.Slug == Slugify(fields.Title) {
			c.state.Draft.SlugSource = fields.Title
		}
		c.state.Notice = &Notice{Title: "Error", Detail: detail, Error: true}
		return c.state
	}

	c.log.InfoContext(ctx, "post saved", slog.String("id", saved.ID), slog.String("slug", saved.Slug))
	c.invalidate(ctx)
	c.state.Draft = NewDraft(c.now())
	c.state.Notice = &notice
	return c.Dispatch(ctx, ListRequested{})
}

func (c *Console) invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Invalidate(ctx)
	}
}

func validationMessage(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return msgSaveFailed
	}
	label, ok := fieldLabels[ve.Field]
	if !ok {
		label = ve.Field
	}
	return label + " " + ve.Msg + "."
}
