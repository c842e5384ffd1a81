package form

import (
	"strings"

	"github.com/goliatone/go-formgrid/pkg/schema"
)

// Draft is the uncommitted state of one form session: one string slot per
// schema key, never nil.
type Draft struct {
	keys   []string
	values map[string]string
}

func newDraft(s *schema.Schema, seed *schema.Record) Draft {
	d := Draft{keys: s.Keys(), values: make(map[string]string, s.Len())}
	for _, key := range d.keys {
		d.values[key] = ""
		if seed != nil {
			if v, ok := seed.Values[key]; ok {
				d.values[key] = v
			}
		}
	}
	return d
}

// Get returns the slot for key.
func (d Draft) Get(key string) string {
	return d.values[key]
}

// Keys returns the ordered slot keys.
func (d Draft) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Values returns a copy of all slots.
func (d Draft) Values() map[string]string {
	out := make(map[string]string, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// IsZero reports whether the draft has no slots (no open session).
func (d Draft) IsZero() bool {
	return len(d.keys) == 0
}

func (d Draft) clone() Draft {
	return Draft{keys: d.Keys(), values: d.Values()}
}

func (d Draft) set(key, value string) {
	d.values[key] = value
}

func (d Draft) identifier(idKey string) string {
	return strings.TrimSpace(d.values[idKey])
}
