// Package config loads a console definition (backend location, transport
// settings and one entry per entity screen) from JSON or YAML and wires it
// into ready-to-mount screens.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formgrid/internal/openapi/parser"
	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/renderers/html"
	"github.com/goliatone/go-formgrid/pkg/schema"
	"github.com/goliatone/go-formgrid/pkg/validation"
)

var (
	// ErrNoEntities is returned when the console declares no screens.
	ErrNoEntities = errors.New("config: at least one entity is required")
	// ErrUnknownEntity is returned when a screen name is not declared.
	ErrUnknownEntity = errors.New("config: unknown entity")
)

// Retry configures read retries of the HTTP transport.
type Retry struct {
	Max     int           `yaml:"max"`
	WaitMin time.Duration `yaml:"waitMin"`
	WaitMax time.Duration `yaml:"waitMax"`
}

// Web configures the HTML console.
type Web struct {
	Title             string         `yaml:"title"`
	TemplatesDir      string         `yaml:"templatesDir"`
	TemplateExtension string         `yaml:"templateExtension"`
	Globals           map[string]any `yaml:"globals"`
}

// Reference maps a feed key holding a record id to an entity.
type Reference struct {
	Key    string `yaml:"key"`
	Entity string `yaml:"entity"`
}

// Feed configures the recent-activity list shown on the dashboard.
type Feed struct {
	Path       string      `yaml:"path"`
	References []Reference `yaml:"references"`
	TextKey    string      `yaml:"textKey"`
	AuthorKey  string      `yaml:"authorKey"`
	DateKey    string      `yaml:"dateKey"`
	Limit      int         `yaml:"limit"`
}

// Entity declares one screen. Exactly one of Schema, SchemaFile or OpenAPI
// must be set; OpenAPI also needs Component.
type Entity struct {
	Name          string           `yaml:"name"`
	Title         string           `yaml:"title"`
	Collection    string           `yaml:"collection"`
	PageSize      int              `yaml:"pageSize"`
	AllowDelete   bool             `yaml:"allowDelete"`
	LabelledViews bool             `yaml:"labelledViews"`
	Schema        *schema.Document `yaml:"schema"`
	SchemaFile    string           `yaml:"schemaFile"`
	OpenAPI       string           `yaml:"openapi"`
	Component     string           `yaml:"component"`

	// Messages overrides validation messages by rule name for this screen.
	Messages map[string]string `yaml:"messages"`
}

// Config is the console definition.
type Config struct {
	BaseURL       string            `yaml:"baseURL"`
	Envelope      string            `yaml:"envelope"`
	UpdateMode    string            `yaml:"updateMode"`
	PageParam     string            `yaml:"pageParam"`
	PageSizeParam string            `yaml:"pageSizeParam"`
	Headers       map[string]string `yaml:"headers"`
	Timeout       time.Duration     `yaml:"timeout"`
	Retry         Retry             `yaml:"retry"`

	// OptionConcurrency bounds parallel option fetches per form session.
	OptionConcurrency int `yaml:"optionConcurrency"`
	// Messages overrides validation messages by rule name for every screen.
	Messages map[string]string `yaml:"messages"`
	Web      Web               `yaml:"web"`
	Feed     Feed              `yaml:"feed"`
	Entities []Entity          `yaml:"entities"`

	dir string
}

// Load reads path. Relative schemaFile and openapi paths resolve against the
// file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes a JSON or YAML document (JSON is valid YAML) and validates it.
func Parse(data []byte) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("config: document is empty")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural requirements of the document.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("config: baseURL is required")
	}
	if mode := strings.TrimSpace(c.UpdateMode); mode != "" && mode != string(client.UpdateModeEdit) && mode != string(client.UpdateModePut) {
		return fmt.Errorf("config: updateMode %q must be edit or put", mode)
	}
	if c.OptionConcurrency < 0 {
		return fmt.Errorf("config: optionConcurrency %d must not be negative", c.OptionConcurrency)
	}
	if len(c.Entities) == 0 {
		return ErrNoEntities
	}
	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("config: entities[%d]: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("config: entity %q declared twice", name)
		}
		seen[name] = true
		if strings.TrimSpace(e.Collection) == "" {
			return fmt.Errorf("config: entity %q: collection is required", name)
		}
		sources := 0
		if e.Schema != nil {
			sources++
		}
		if e.SchemaFile != "" {
			sources++
		}
		if e.OpenAPI != "" {
			sources++
			if e.Component == "" {
				return fmt.Errorf("config: entity %q: openapi requires component", name)
			}
		}
		if sources != 1 {
			return fmt.Errorf("config: entity %q: exactly one of schema, schemaFile or openapi is required", name)
		}
	}
	if c.Feed.Path != "" {
		if len(c.Feed.References) == 0 {
			return errors.New("config: feed: at least one reference is required")
		}
		for _, ref := range c.Feed.References {
			if !seen[ref.Entity] {
				return fmt.Errorf("config: feed reference %q: %w: %s", ref.Key, ErrUnknownEntity, ref.Entity)
			}
		}
	}
	return nil
}

// Entity returns the declaration for name.
func (c *Config) Entity(name string) (Entity, bool) {
	for _, e := range c.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// Names returns the declared entity names in order.
func (c *Config) Names() []string {
	out := make([]string, len(c.Entities))
	for i, e := range c.Entities {
		out[i] = e.Name
	}
	return out
}

// Client builds the HTTP transport described by the document. extra options
// are applied last.
func (c *Config) Client(logger *slog.Logger, extra ...client.Option) (*client.HTTP, error) {
	opts := []client.Option{
		client.WithEnvelope(c.Envelope),
		client.WithUpdateMode(client.ParseUpdateMode(c.UpdateMode)),
		client.WithPageParam(c.PageParam),
		client.WithPageSizeParam(c.PageSizeParam),
		client.WithTimeout(c.Timeout),
		client.WithLogger(logger),
	}
	if c.Retry != (Retry{}) {
		opts = append(opts, client.WithRetry(c.Retry.Max, c.Retry.WaitMin, c.Retry.WaitMax))
	}
	for k, v := range c.Headers {
		opts = append(opts, client.WithHeader(k, os.ExpandEnv(v)))
	}
	opts = append(opts, extra...)
	return client.NewHTTP(c.BaseURL, opts...)
}

// Schema builds the field schema of e from whichever source it declares.
func (c *Config) Schema(ctx context.Context, e Entity) (*schema.Schema, error) {
	switch {
	case e.Schema != nil:
		doc := *e.Schema
		if doc.Entity == "" {
			doc.Entity = e.Name
		}
		s, err := doc.Build()
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		return s, nil
	case e.SchemaFile != "":
		data, err := os.ReadFile(c.resolve(e.SchemaFile))
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		doc, err := schema.ParseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		if doc.Entity == "" {
			doc.Entity = e.Name
		}
		s, err := doc.Build()
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		return s, nil
	case e.OpenAPI != "":
		data, err := os.ReadFile(c.resolve(e.OpenAPI))
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		s, err := parser.EntitySchema(ctx, data, e.Component, parser.WithEntity(e.Name))
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("config: entity %q has no schema source", e.Name)
	}
}

// Screens builds one screen per entity over a shared transport and option
// resolver. screenOpts apply to every screen, before the per-entity settings.
func (c *Config) Screens(ctx context.Context, api *client.HTTP, logger *slog.Logger, screenOpts ...console.Option) ([]*console.Screen, error) {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := options.NewResolver(api,
		options.WithLogger(logger),
		options.WithConcurrency(c.OptionConcurrency),
	)
	screens := make([]*console.Screen, 0, len(c.Entities))
	for _, e := range c.Entities {
		s, err := c.Schema(ctx, e)
		if err != nil {
			return nil, err
		}
		builder, err := validation.NewBuilder(
			validation.WithMessages(c.Messages),
			validation.WithMessages(e.Messages),
		)
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		opts := append([]console.Option{
			console.WithLogger(logger),
			console.WithResolver(resolver),
			console.WithValidationBuilder(builder),
		}, screenOpts...)
		opts = append(opts,
			console.WithTitle(e.Title),
			console.WithPageSize(e.PageSize),
			console.WithAllowDelete(e.AllowDelete),
			console.WithLabelledViews(e.LabelledViews),
		)
		scr, err := console.New(api.Collection(e.Collection), s, opts...)
		if err != nil {
			return nil, fmt.Errorf("config: entity %q: %w", e.Name, err)
		}
		screens = append(screens, scr)
	}
	return screens, nil
}

// ActivityFeed builds the recent-activity feed over api, or returns nil when the
// document declares no feed path.
func (c *Config) ActivityFeed(api client.Fetcher, logger *slog.Logger) *console.Feed {
	if strings.TrimSpace(c.Feed.Path) == "" {
		return nil
	}
	opts := []console.FeedOption{
		console.WithFeedKeys(c.Feed.TextKey, c.Feed.AuthorKey, c.Feed.DateKey),
		console.WithFeedLimit(c.Feed.Limit),
		console.WithFeedLogger(logger),
	}
	for _, ref := range c.Feed.References {
		opts = append(opts, console.WithReference(ref.Key, ref.Entity))
	}
	return console.NewFeed(api, c.Feed.Path, opts...)
}

// Engine builds the HTML template engine from the web section. A relative
// templatesDir resolves against the file's directory.
func (c *Config) Engine() (*html.Engine, error) {
	opts := []html.Option{
		html.WithExtension(c.Web.TemplateExtension),
		html.WithGlobalData(c.Web.Globals),
	}
	if dir := strings.TrimSpace(c.Web.TemplatesDir); dir != "" {
		opts = append(opts, html.WithBaseDir(c.resolve(dir)))
	}
	engine, err := html.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("config: web: %w", err)
	}
	return engine, nil
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}
