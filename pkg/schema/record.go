package schema

import "strings"

// Record is one persisted entity instance decoded against a schema. Values
// holds the draft-ready string form of every declared key that was present on
// the wire; Extra keeps undeclared keys so they survive a round trip without
// being rendered.
type Record struct {
	ID     string
	Values map[string]string
	Extra  map[string]any
}

// DecodeRecord maps a raw wire object onto the schema. Nil values count as
// absent.
func (s *Schema) DecodeRecord(raw map[string]any) Record {
	rec := Record{Values: make(map[string]string, len(s.fields))}
	for key, value := range raw {
		idx, ok := s.index[key]
		if !ok {
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[key] = value
			continue
		}
		if formatted, present := s.specs[idx].Format(value); present {
			rec.Values[key] = formatted
		}
	}
	rec.ID = strings.TrimSpace(rec.Values[s.idKey])
	return rec
}

// DecodeRecords decodes a slice of raw objects, skipping non-object entries.
func (s *Schema) DecodeRecords(raw []any) []Record {
	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, s.DecodeRecord(obj))
	}
	return out
}

// Value returns the value stored for key.
func (r Record) Value(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Complete reports whether every schema key is present on the record.
func (r Record) Complete(s *Schema) bool {
	for _, f := range s.fields {
		if _, ok := r.Values[f.Key]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the record's maps.
func (r Record) Clone() Record {
	out := Record{ID: r.ID}
	if r.Values != nil {
		out.Values = make(map[string]string, len(r.Values))
		for k, v := range r.Values {
			out.Values[k] = v
		}
	}
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Payload flattens the record back into a wire object. Declared values win
// over preserved extras with the same key.
func (r Record) Payload() map[string]any {
	out := make(map[string]any, len(r.Values)+len(r.Extra))
	for k, v := range r.Extra {
		out[k] = v
	}
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}
