// Package parser derives entity schemas from OpenAPI 3 component schemas.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formgrid/pkg/schema"
)

var (
	// ErrEmptyDocument is returned when no document bytes were supplied.
	ErrEmptyDocument = errors.New("openapi parser: document payload is empty")
	// ErrComponentNotFound is returned when the named component is missing.
	ErrComponentNotFound = errors.New("openapi parser: component schema not found")
	// ErrNotObject is returned when the component has no properties.
	ErrNotObject = errors.New("openapi parser: component schema has no properties")
)

// Options tunes parsing.
type Options struct {
	// Entity names the resulting schema; defaults to the lower-cased component.
	Entity string
	// Validate runs kin-openapi document validation before conversion.
	Validate bool
}

// Option mutates Options.
type Option func(*Options)

// WithEntity sets the entity name of the resulting schema.
func WithEntity(name string) Option {
	return func(o *Options) { o.Entity = strings.TrimSpace(name) }
}

// WithValidation enables document validation.
func WithValidation() Option {
	return func(o *Options) { o.Validate = true }
}

// EntitySchema loads raw (JSON or YAML) and converts components.schemas.<component>
// into a field schema.
func EntitySchema(ctx context.Context, raw []byte, component string, opts ...Option) (*schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if cfg.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	if doc.Components == nil {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrComponentNotFound, component)
	}

	entity := cfg.Entity
	if entity == "" {
		entity = strings.ToLower(component)
	}
	return ComponentSchema(entity, ref.Value)
}

// ComponentSchema converts an already loaded component schema.
func ComponentSchema(entity string, src *openapi3.Schema) (*schema.Schema, error) {
	props := collectProperties(src)
	if len(props) == 0 {
		return nil, ErrNotObject
	}

	required := make(map[string]bool)
	for _, key := range collectRequired(src) {
		required[key] = true
	}

	fields := make([]schema.Field, 0, len(props))
	for _, key := range propertyOrder(src, props) {
		field, err := convertProperty(key, props[key], required[key])
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	var buildOpts []schema.Option
	if idKey, ok := stringExtension(src.Extensions, idKeyExtension); ok {
		buildOpts = append(buildOpts, schema.WithIDKey(idKey))
	}
	return schema.New(entity, fields, buildOpts...)
}

// collectProperties flattens allOf members into one property map. Later
// members win, direct properties win over all of them.
func collectProperties(src *openapi3.Schema) openapi3.Schemas {
	out := make(openapi3.Schemas)
	if src == nil {
		return out
	}
	for _, member := range src.AllOf {
		if member == nil || member.Value == nil {
			continue
		}
		for k, v := range collectProperties(member.Value) {
			out[k] = v
		}
	}
	for k, v := range src.Properties {
		out[k] = v
	}
	return out
}

func collectRequired(src *openapi3.Schema) []string {
	if src == nil {
		return nil
	}
	out := append([]string(nil), src.Required...)
	for _, member := range src.AllOf {
		if member != nil && member.Value != nil {
			out = append(out, collectRequired(member.Value)...)
		}
	}
	return out
}

// propertyOrder honours x-formgrid-order, then appends the remaining keys
// alphabetically. Property maps carry no declaration order.
func propertyOrder(src *openapi3.Schema, props openapi3.Schemas) []string {
	seen := make(map[string]bool, len(props))
	order := make([]string, 0, len(props))
	if raw, ok := src.Extensions[orderExtension].([]any); ok {
		for _, item := range raw {
			key, ok := item.(string)
			if !ok || seen[key] {
				continue
			}
			if _, exists := props[key]; !exists {
				continue
			}
			seen[key] = true
			order = append(order, key)
		}
	}
	rest := make([]string, 0, len(props))
	for key := range props {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
