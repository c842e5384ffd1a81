package schema

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultIDKey is the identifier key used when a schema does not name one.
const DefaultIDKey = "id"

// Schema is an immutable, validated field list for one entity.
type Schema struct {
	entity string
	idKey  string
	fields []Field
	specs  []KindSpec
	index  map[string]int
}

// Option configures schema construction.
type Option func(*buildConfig)

type buildConfig struct {
	idKey string
}

// WithIDKey overrides the identifier key (default "id").
func WithIDKey(key string) Option {
	return func(cfg *buildConfig) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			cfg.idKey = trimmed
		}
	}
}

var errNoFields = errors.New("schema: at least one field is required")

// New validates the field list and resolves each field's kind dispatch entry.
// When the identifier key is not declared it is added as a hidden text field
// ahead of the declared fields.
func New(entity string, fields []Field, options ...Option) (*Schema, error) {
	cfg := buildConfig{idKey: DefaultIDKey}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(fields) == 0 {
		return nil, errNoFields
	}

	s := &Schema{
		entity: strings.TrimSpace(entity),
		idKey:  cfg.idKey,
		index:  make(map[string]int, len(fields)+1),
	}

	declared := make([]Field, 0, len(fields)+1)
	hasID := false
	for _, raw := range fields {
		if strings.TrimSpace(raw.Key) == cfg.idKey {
			hasID = true
			break
		}
	}
	if !hasID {
		declared = append(declared, Field{Key: cfg.idKey, Label: "ID", Kind: KindText, Hidden: true})
	}
	declared = append(declared, fields...)

	for _, raw := range declared {
		field, err := normaliseField(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := s.index[field.Key]; dup {
			return nil, fmt.Errorf("schema: duplicate field key %q", field.Key)
		}
		spec, ok := field.Kind.Spec()
		if !ok {
			return nil, fmt.Errorf("schema: field %q has no dispatch entry for kind %q", field.Key, field.Kind)
		}
		s.index[field.Key] = len(s.fields)
		s.fields = append(s.fields, field)
		s.specs = append(s.specs, spec)
	}
	return s, nil
}

// Entity returns the entity name the schema describes.
func (s *Schema) Entity() string { return s.entity }

// IDKey returns the identifier key.
func (s *Schema) IDKey() string { return s.idKey }

// Len returns the number of fields, including the identifier.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns a copy of the ordered field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Keys returns the ordered field keys.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Key
	}
	return out
}

// Field looks up a field by key.
func (s *Schema) Field(key string) (Field, bool) {
	idx, ok := s.index[key]
	if !ok {
		return Field{}, false
	}
	return s.fields[idx], true
}

// Spec returns the resolved dispatch entry for a field key.
func (s *Schema) Spec(key string) (KindSpec, bool) {
	idx, ok := s.index[key]
	if !ok {
		return KindSpec{}, false
	}
	return s.specs[idx], true
}

// Inputs returns the fields rendered as form inputs (non-hidden).
func (s *Schema) Inputs() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !f.Hidden {
			out = append(out, f)
		}
	}
	return out
}

// DynamicFields returns the fields whose options are fetched remotely.
func (s *Schema) DynamicFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.IsDynamic() {
			out = append(out, f)
		}
	}
	return out
}
