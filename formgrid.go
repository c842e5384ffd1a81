// Package formgrid is the top-level entry point: it re-exports the core types
// and wires a console file into ready-to-serve screens in one call.
package formgrid

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/config"
	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/renderers/html"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// Schema aliases schema.Schema.
type Schema = schema.Schema

// Field aliases schema.Field.
type Field = schema.Field

// Record aliases schema.Record.
type Record = schema.Record

// Screen aliases console.Screen.
type Screen = console.Screen

// Collection aliases client.Collection, the backend contract of a screen.
type Collection = client.Collection

// NewSchema builds a schema from its fields.
func NewSchema(entity string, fields []Field, options ...schema.Option) (*Schema, error) {
	return schema.New(entity, fields, options...)
}

// NewScreen builds a screen over any Collection implementation.
func NewScreen(api Collection, s *Schema, options ...console.Option) (*Screen, error) {
	return console.New(api, s, options...)
}

// Load reads the console file at path and returns one screen per declared
// entity over an HTTP transport. screenOpts apply to every screen.
func Load(ctx context.Context, path string, logger *slog.Logger, screenOpts ...console.Option) ([]*Screen, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	api, err := cfg.Client(logger)
	if err != nil {
		return nil, err
	}
	return cfg.Screens(ctx, api, logger, screenOpts...)
}

// EmbeddedTemplates exposes the built-in HTML console templates so callers
// can copy or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}
