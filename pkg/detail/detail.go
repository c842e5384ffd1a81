// Package detail projects a record onto a read-only display model. Projection
// is pure: no network, no mutation of the record, and the same input always
// yields the same model.
package detail

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formgrid/pkg/options"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// EmptyMarker is displayed for absent or blank values.
const EmptyMarker = "—"

// Entry is one labelled value of the display model.
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
	Empty bool   `json:"empty"`
}

// DisplayModel is the projected, display-ready view of a record.
type DisplayModel struct {
	Entity  string  `json:"entity"`
	ID      string  `json:"id"`
	Entries []Entry `json:"entries"`
}

// Entry returns the entry for key.
func (m DisplayModel) Entry(key string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Project renders every schema field of rec, in schema order. Values are
// sanitised so markup coming from the backend is displayed as text.
func Project(rec schema.Record, s *schema.Schema) DisplayModel {
	return ProjectWithOptions(rec, s, nil)
}

// ProjectWithOptions behaves like Project but shows option labels in place of
// the stored ids of dynamic fields when sets carries them. Ids with no
// matching option are shown unchanged.
func ProjectWithOptions(rec schema.Record, s *schema.Schema, sets options.Sets) DisplayModel {
	fields := s.Fields()
	model := DisplayModel{
		Entity:  s.Entity(),
		ID:      rec.ID,
		Entries: make([]Entry, 0, len(fields)),
	}
	for _, field := range fields {
		raw := strings.TrimSpace(rec.Values[field.Key])
		if field.IsDynamic() && raw != "" && sets != nil {
			if label := sets.For(field.Key).Label(raw); label != "" {
				raw = label
			}
		}
		value := sanitize(raw)
		entry := Entry{Key: field.Key, Label: field.DisplayLabel(), Value: value}
		if value == "" {
			entry.Value = EmptyMarker
			entry.Empty = true
		}
		model.Entries = append(model.Entries, entry)
	}
	return model
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(textPolicy().Sanitize(raw))
}

func textPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}
