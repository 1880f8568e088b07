package content

import (
	"context"
	"fmt"

	"github.com/ButyrinIA/spacetraveling/internal/models"
)

// PageFetcher fetches the page identified by an opaque cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (models.RawPage, error)
}

type Option func(*Controller)

// WithDuplicateHook registers fn to be told about records dropped because
// their id was already listed.
func WithDuplicateHook(fn func(id string)) Option {
	return func(c *Controller) {
		c.onDuplicate = fn
	}
}

// Controller holds the posts listed so far in one session and the cursor
// of the next page. It is not safe for concurrent use; the owner must not
// call LoadNextPage again before the previous call returned.
type Controller struct {
	client      PageFetcher
	posts       []models.Post
	ids         map[string]struct{}
	nextCursor  string
	initialized bool
	onDuplicate func(id string)
}

func NewController(client PageFetcher, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		ids:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads the first page. On error the controller stays empty.
func (c *Controller) Initialize(first models.RawPage) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	posts, dropped, err := c.normalizePage(first.Records)
	if err != nil {
		return err
	}
	c.commit(posts, dropped, first.NextCursor)
	c.initialized = true
	return nil
}

// LoadNextPage fetches the page at the current cursor and appends it.
// Posts and cursor change together or not at all, so after a failure the
// same page can be requested again.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if c.nextCursor == "" {
		return ErrNoMorePages
	}

	page, err := c.client.FetchPage(ctx, c.nextCursor)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	posts, dropped, err := c.normalizePage(page.Records)
	if err != nil {
		return err
	}
	c.commit(posts, dropped, page.NextCursor)
	return nil
}

// Posts returns a copy of the listed posts in arrival order.
func (c *Controller) Posts() []models.Post {
	out := make([]models.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

func (c *Controller) Len() int {
	return len(c.posts)
}

func (c *Controller) HasMore() bool {
	return c.nextCursor != ""
}

func (c *Controller) NextCursor() string {
	return c.nextCursor
}

// normalizePage does not touch controller state. The first record with a
// given id wins; later ones, in this page or already listed, are dropped.
func (c *Controller) normalizePage(records []models.RawRecord) ([]models.Post, []string, error) {
	posts := make([]models.Post, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var dropped []string

	for i, raw := range records {
		post, err := Normalize(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, ok := c.ids[post.ID]; ok {
			dropped = append(dropped, post.ID)
			continue
		}
		if _, ok := seen[post.ID]; ok {
			dropped = append(dropped, post.ID)
			continue
		}
		seen[post.ID] = struct{}{}
		posts = append(posts, post)
	}
	return posts, dropped, nil
}

func (c *Controller) commit(posts []models.Post, dropped []string, cursor string) {
	for _, p := range posts {
		c.ids[p.ID] = struct{}{}
	}
	c.posts = append(c.posts, posts...)
	c.nextCursor = cursor

	if c.onDuplicate != nil {
		for _, id := range dropped {
			c.onDuplicate(id)
		}
	}
}
