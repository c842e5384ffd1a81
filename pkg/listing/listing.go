// Package listing owns server-paginated browsing of one collection: the
// current page, the fixed page size, the remote total and the
// fetch-on-page-change contract. Every fetch is tagged with a ticket; only the
// response for the most recently requested ticket may become the current page,
// so out-of-order completions can never show rows for a page the user already
// left.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// DefaultPageSize is the controller-owned page size.
const DefaultPageSize = 20

var (
	// ErrStale is returned for a response superseded by a later request.
	ErrStale = errors.New("listing: response superseded by a newer request")
	// ErrNegativePage rejects negative page indexes.
	ErrNegativePage = errors.New("listing: page index must be >= 0")
)

// Page is one server-paginated slice plus the collection total.
type Page struct {
	Rows       []schema.Record
	Index      int
	Size       int
	TotalCount int
}

// PageCount returns the number of pages implied by TotalCount.
func (p Page) PageCount() int {
	if p.Size <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + p.Size - 1) / p.Size
}

// FetchError reports a listing retrieval failure. The previously displayed
// page is left untouched.
type FetchError struct {
	Index int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("listing: fetch page %d: %v", e.Index, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Observer is notified about fetch outcomes. Implementations must not block.
type Observer interface {
	PageLoaded(entity string, page Page)
	PageFailed(entity string, index int, err error)
	PageDiscarded(entity string, index int)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a fetch observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// Controller is safe for concurrent use. The network call runs without the
// lock held.
type Controller struct {
	api      client.Collection
	schema   *schema.Schema
	size     int
	logger   *slog.Logger
	observer Observer

	mu        sync.Mutex
	ticket    uint64
	requested int
	current   Page
	loaded    bool
}

// New constructs a controller for one collection.
func New(api client.Collection, s *schema.Schema, options ...Option) *Controller {
	c := &Controller{
		api:    api,
		schema: s,
		size:   DefaultPageSize,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	c.current = Page{Size: c.size}
	return c
}

// PageSize returns the fixed page size.
func (c *Controller) PageSize() int { return c.size }

// OnMount fetches the first page.
func (c *Controller) OnMount(ctx context.Context) (Page, error) {
	return c.FetchPage(ctx, 0)
}

// OnPageChange fetches index exactly once.
func (c *Controller) OnPageChange(ctx context.Context, index int) (Page, error) {
	return c.FetchPage(ctx, index)
}

// Refresh refetches the displayed page, or the page still in flight when a
// newer request has not completed yet.
func (c *Controller) Refresh(ctx context.Context) (Page, error) {
	c.mu.Lock()
	index := c.requested
	c.mu.Unlock()
	return c.FetchPage(ctx, index)
}

// FetchPage retrieves index and, if no later request was issued meanwhile,
// makes it the current page. Superseded responses return ErrStale and leave
// the current page alone; failures return a *FetchError and keep the prior
// page. A failed request no longer counts as requested, so Requested falls
// back to the displayed index.
func (c *Controller) FetchPage(ctx context.Context, index int) (Page, error) {
	if index < 0 {
		return c.Current(), &FetchError{Index: index, Err: ErrNegativePage}
	}

	c.mu.Lock()
	c.ticket++
	ticket := c.ticket
	c.requested = index
	c.mu.Unlock()

	res, err := c.api.List(ctx, index, c.size)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket != c.ticket {
		c.logger.DebugContext(ctx, "discarding stale page", "entity", c.schema.Entity(), "page", index, "ticket", ticket, "latest", c.ticket)
		if c.observer != nil {
			c.observer.PageDiscarded(c.schema.Entity(), index)
		}
		return c.current, ErrStale
	}

	if err != nil {
		ferr := &FetchError{Index: index, Err: err}
		c.requested = c.current.Index
		c.logger.WarnContext(ctx, "page fetch failed", "entity", c.schema.Entity(), "page", index, "error", err)
		if c.observer != nil {
			c.observer.PageFailed(c.schema.Entity(), index, err)
		}
		return c.current, ferr
	}

	rows := c.schema.DecodeRecords(toAny(res.Items))
	if len(rows) > c.size {
		c.logger.WarnContext(ctx, "page larger than page size, truncating", "entity", c.schema.Entity(), "rows", len(rows), "size", c.size)
		rows = rows[:c.size]
	}
	total := res.Total
	if total < 0 {
		total = 0
	}
	c.current = Page{Rows: rows, Index: index, Size: c.size, TotalCount: total}
	c.loaded = true
	if c.observer != nil {
		c.observer.PageLoaded(c.schema.Entity(), c.current)
	}
	return c.current, nil
}

// Current returns the displayed page.
func (c *Controller) Current() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Requested returns the index of the page in flight, or the displayed index
// when no request is outstanding.
func (c *Controller) Requested() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requested
}

// Loaded reports whether any page has been applied.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Row returns the record at position i of the current page.
func (c *Controller) Row(i int) (schema.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.current.Rows) {
		return schema.Record{}, false
	}
	return c.current.Rows[i].Clone(), true
}

// Find returns the current-page record with the given id.
func (c *Controller) Find(id string) (schema.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.current.Rows {
		if row.ID == id {
			return row.Clone(), true
		}
	}
	return schema.Record{}, false
}

func toAny(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
