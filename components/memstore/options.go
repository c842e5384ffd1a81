package memstore

import (
	"log/slog"
	"net/http"
	"strings"
)

type GuardFunc func(r *http.Request) error

// CollectionSpec declares one collection served by the store.
type CollectionSpec struct {
	Name     string
	Required []string
	// LabelKey is the field nameList exposes as "name". Defaults to "name".
	LabelKey string
	// DateKey orders the recent route, newest first. Values are compared as
	// strings, so RFC 3339 timestamps sort correctly. Without it the recent
	// route returns records newest-inserted first.
	DateKey string
	Seed    []map[string]any
}

type Options struct {
	RoutePath       string
	Envelope        string
	PageParam       string
	PageSizeParam   string
	SearchParam     string
	LimitParam      string
	DefaultPageSize int
	MaxPageSize     int
	Guard           GuardFunc
	IDs             func() string
	Logger          *slog.Logger

	Collections []CollectionSpec
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api",
		Envelope:        "detail",
		PageParam:       "pageNumber",
		PageSizeParam:   "pageSize",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultPageSize: 20,
		MaxPageSize:     200,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 200
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api"
	}
	if opts.PageParam == "" {
		opts.PageParam = "pageNumber"
	}
	if opts.PageSizeParam == "" {
		opts.PageSizeParam = "pageSize"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Collections != nil {
		opts.Collections = append([]CollectionSpec{}, opts.Collections...)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithEnvelope sets the key responses are wrapped in; "" disables wrapping.
func WithEnvelope(key string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Envelope = strings.TrimSpace(key)
	}
}

func WithDefaultPageSize(size int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultPageSize = size
	}
}

func WithMaxPageSize(size int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxPageSize = size
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithIDs overrides id generation for created records.
func WithIDs(fn func() string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.IDs = fn
	}
}

func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithCollection(spec CollectionSpec) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Collections = append(o.Collections, spec)
	}
}

// WithCollections registers several collections at once.
func WithCollections(specs ...CollectionSpec) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Collections = append(o.Collections, specs...)
	}
}

func clampPageSize(size int, opts Options) int {
	if size <= 0 {
		size = opts.DefaultPageSize
	}
	if opts.MaxPageSize > 0 && size > opts.MaxPageSize {
		return opts.MaxPageSize
	}
	return size
}
