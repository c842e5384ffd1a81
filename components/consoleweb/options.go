package consoleweb

import (
	"log/slog"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/renderers/html"
)

const (
	defaultRoutePath = "/console"
	defaultTitle     = "Formgrid"
)

// Options configures the console handler.
type Options struct {
	RoutePath string
	Title     string
	Engine    *html.Engine
	Feed      *console.Feed
	Logger    *slog.Logger
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the baseline configuration.
func DefaultOptions() Options {
	return Options{
		RoutePath: defaultRoutePath,
		Title:     defaultTitle,
		Logger:    slog.Default(),
	}
}

// NewOptions applies fns over DefaultOptions.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if strings.TrimSpace(opts.RoutePath) == "" {
		opts.RoutePath = defaultRoutePath
	}
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = defaultTitle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// WithRoutePath overrides the mount path below the base path.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

// WithTitle sets the dashboard title.
func WithTitle(title string) OptionFn {
	return func(o *Options) { o.Title = title }
}

// WithEngine supplies a preconfigured template engine.
func WithEngine(engine *html.Engine) OptionFn {
	return func(o *Options) { o.Engine = engine }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Options) { o.Logger = logger }
}

// WithFeed adds a recent-activity panel to the dashboard.
func WithFeed(feed *console.Feed) OptionFn {
	return func(o *Options) { o.Feed = feed }
}
