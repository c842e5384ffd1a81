package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/detail"
	"github.com/goliatone/go-formgrid/pkg/options"
)

// ErrNoScreenForActivity is returned when an activity references an entity
// none of the given screens manages.
var ErrNoScreenForActivity = errors.New("console: no screen for activity entity")

// Activity is one entry of the recent-activity feed. It points at a record
// of one of the console's entities.
type Activity struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
	At     string `json:"at"`
	Entity string `json:"entity"`
	Record string `json:"record"`
}

// Summary returns Text cut to at most n runes, marking the cut with "...".
func (a Activity) Summary(n int) string {
	runes := []rune(a.Text)
	if n <= 0 || len(runes) <= n {
		return a.Text
	}
	return string(runes[:n]) + "..."
}

type reference struct {
	key    string
	entity string
}

// FeedOption configures a Feed.
type FeedOption func(*Feed)

// WithReference maps a feed key holding a record id to the entity it
// belongs to ("customerId" -> "customer"). References are tried in the order
// given; the first non-empty one wins.
func WithReference(key, entity string) FeedOption {
	return func(f *Feed) {
		key, entity = strings.TrimSpace(key), strings.TrimSpace(entity)
		if key != "" && entity != "" {
			f.refs = append(f.refs, reference{key: key, entity: entity})
		}
	}
}

// WithFeedKeys overrides the dotted paths of the text, author and timestamp
// values. Empty arguments keep the current path.
func WithFeedKeys(text, author, at string) FeedOption {
	return func(f *Feed) {
		if text != "" {
			f.textKey = text
		}
		if author != "" {
			f.authorKey = author
		}
		if at != "" {
			f.atKey = at
		}
	}
}

// WithFeedLimit caps the number of entries Recent returns.
func WithFeedLimit(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithFeedLogger sets the feed logger.
func WithFeedLogger(logger *slog.Logger) FeedOption {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Feed reads a recent-activity list (newest first, as served) and resolves
// each entry to the record it references.
type Feed struct {
	source    client.Fetcher
	path      string
	refs      []reference
	textKey   string
	authorKey string
	atKey     string
	limit     int
	logger    *slog.Logger
}

// NewFeed builds a feed over path. Defaults read "comment", "user.name" and
// "createdDate" and keep at most 10 entries.
func NewFeed(source client.Fetcher, path string, opts ...FeedOption) *Feed {
	f := &Feed{
		source:    source,
		path:      path,
		textKey:   "comment",
		authorKey: "user.name",
		atKey:     "createdDate",
		limit:     10,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Recent fetches the feed. Entries that reference no known entity are
// skipped.
func (f *Feed) Recent(ctx context.Context) ([]Activity, error) {
	payload, err := f.source.Fetch(ctx, f.path)
	if err != nil {
		return nil, fmt.Errorf("console: activity feed %s: %w", f.path, err)
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("console: activity feed %s: expected a list, got %T", f.path, payload)
	}

	out := make([]Activity, 0, min(len(items), f.limit))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := Activity{
			ID:     options.Lookup(obj, "id"),
			Author: options.Lookup(obj, f.authorKey),
			Text:   options.Lookup(obj, f.textKey),
			At:     options.Lookup(obj, f.atKey),
		}
		for _, ref := range f.refs {
			if id := options.Lookup(obj, ref.key); id != "" {
				entry.Entity, entry.Record = ref.entity, id
				break
			}
		}
		if entry.Record == "" {
			f.logger.DebugContext(ctx, "activity without record reference", "path", f.path, "id", entry.ID)
			continue
		}
		out = append(out, entry)
		if len(out) == f.limit {
			break
		}
	}
	return out, nil
}

// OpenActivity shows the record a references on the screen managing its
// entity and returns the projected model.
func OpenActivity(ctx context.Context, a Activity, screens ...*Screen) (detail.DisplayModel, error) {
	for _, scr := range screens {
		if scr.Entity() == a.Entity {
			return scr.ViewID(ctx, a.Record)
		}
	}
	return detail.DisplayModel{}, fmt.Errorf("%w: %s", ErrNoScreenForActivity, a.Entity)
}
