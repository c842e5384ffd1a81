// Package options resolves the selectable values of dynamic fields. Each form
// session resolves its own sets exactly once when it opens; sets are a
// point-in-time snapshot and are never shared between sessions.
package options

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// Option is one selectable value.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// OptionSet is the ordered option list of one dynamic field.
type OptionSet []Option

// Label returns the label for id, or "" when the id is not in the set.
func (s OptionSet) Label(id string) string {
	for _, o := range s {
		if o.ID == id {
			return o.Label
		}
	}
	return ""
}

// Contains reports whether id is selectable.
func (s OptionSet) Contains(id string) bool {
	for _, o := range s {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Sets maps dynamic field keys to their resolved option sets.
type Sets map[string]OptionSet

// For returns the set for key; unresolved keys yield an empty set.
func (s Sets) For(key string) OptionSet {
	if s == nil {
		return OptionSet{}
	}
	if set, ok := s[key]; ok {
		return set
	}
	return OptionSet{}
}

// ResolutionError reports a dynamic field whose options could not be fetched.
// The field degrades to an empty set; the rest of the form stays editable.
type ResolutionError struct {
	Field string
	Path  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("options: resolve %q from %s: %v", e.Field, e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConcurrency bounds parallel fetches per resolution (default 4).
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.limit = n
		}
	}
}

// Resolver fetches option lists through a client.Fetcher.
type Resolver struct {
	source client.Fetcher
	logger *slog.Logger
	limit  int
}

// NewResolver constructs a resolver.
func NewResolver(source client.Fetcher, options ...ResolverOption) *Resolver {
	r := &Resolver{source: source, logger: slog.Default(), limit: 4}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve issues one fetch per dynamic field of s. Failures never abort the
// other fetches: the failing field gets an empty set and a ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, s *schema.Schema) (Sets, []*ResolutionError) {
	fields := s.DynamicFields()
	sets := make(Sets, len(fields))
	if len(fields) == 0 {
		return sets, nil
	}

	var (
		mu       sync.Mutex
		failures []*ResolutionError
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for _, field := range fields {
		g.Go(func() error {
			set, err := r.resolveField(gctx, field)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rerr := &ResolutionError{Field: field.Key, Path: field.RemoteSource.Path, Err: err}
				failures = append(failures, rerr)
				r.logger.WarnContext(ctx, "dynamic options unavailable", "field", field.Key, "path", field.RemoteSource.Path, "error", err)
				set = OptionSet{}
			}
			sets[field.Key] = set
			return nil
		})
	}
	_ = g.Wait()
	return sets, failures
}

func (r *Resolver) resolveField(ctx context.Context, field schema.Field) (OptionSet, error) {
	if r.source == nil {
		return nil, fmt.Errorf("options: no source configured")
	}
	src := field.RemoteSource
	payload, err := r.source.Fetch(ctx, src.Path)
	if err != nil {
		return nil, err
	}
	items, err := extractResults(payload, src.ResultsPath)
	if err != nil {
		return nil, err
	}
	return buildSet(items, src.OptionValueKey, src.OptionLabelKey), nil
}

func extractResults(payload any, path string) ([]any, error) {
	cur := payload
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := cur.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("options: results path %q not found", path)
			}
			cur = node[segment]
		}
	}
	switch v := cur.(type) {
	case []any:
		return v, nil
	case nil:
		return nil, nil
	case map[string]any:
		// Spring-style pages and {"data": [...]} wrappers.
		for _, key := range []string{"content", "data", "items"} {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
	}
	return nil, fmt.Errorf("options: expected a list, got %T", cur)
}

var labelFallbacks = []string{"label", "name", "title"}

func buildSet(items []any, valueKey, labelKey string) OptionSet {
	set := make(OptionSet, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			id := Lookup(v, valueKey)
			if id == "" {
				continue
			}
			label := ""
			if labelKey != "" {
				label = Lookup(v, labelKey)
			}
			for _, key := range labelFallbacks {
				if label != "" {
					break
				}
				label = Lookup(v, key)
			}
			if label == "" {
				label = id
			}
			set = append(set, Option{ID: id, Label: label})
		default:
			if s, ok := scalar(v); ok && s != "" {
				set = append(set, Option{ID: s, Label: s})
			}
		}
	}
	return set
}

// Lookup follows a dotted path ("user.name") through nested objects and
// returns the scalar found there, or "" when the path does not resolve to one.
func Lookup(obj map[string]any, path string) string {
	cur := any(obj)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	s, _ := scalar(cur)
	return s
}

func scalar(v any) (string, bool) {
	switch v.(type) {
	case map[string]any, []any, nil:
		return "", false
	}
	spec, _ := schema.KindText.Spec()
	return spec.Format(v)
}
