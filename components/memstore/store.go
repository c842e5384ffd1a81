package memstore

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrUnknownCollection is returned for collection names the store was not
	// configured with.
	ErrUnknownCollection = errors.New("memstore: unknown collection")
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("memstore: record not found")
)

// HTTPError is an error that knows the HTTP status it maps to.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError carries the HTTP status and any per-field messages of a failed
// store operation.
type StatusError struct {
	Code   int
	Err    error
	Fields map[string][]string
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// NameEntry is one nameList item.
type NameEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type collection struct {
	spec  CollectionSpec
	order []string
	items map[string]map[string]any
}

// Store holds every collection in memory. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	ids         func() string
	collections map[string]*collection
}

// NewStore builds a store from specs, loading each spec's seed records.
// Seed records without an id get one.
func NewStore(ids func() string, specs ...CollectionSpec) *Store {
	if ids == nil {
		ids = uuid.NewString
	}
	s := &Store{ids: ids, collections: make(map[string]*collection, len(specs))}
	for _, spec := range specs {
		name := strings.Trim(strings.TrimSpace(spec.Name), "/")
		if name == "" {
			continue
		}
		spec.Name = name
		if spec.LabelKey == "" {
			spec.LabelKey = "name"
		}
		col := &collection{spec: spec, items: make(map[string]map[string]any)}
		for _, seed := range spec.Seed {
			rec := cloneRecord(seed)
			id := idOf(rec)
			if id == "" {
				id = ids()
				rec["id"] = id
			}
			if _, dup := col.items[id]; !dup {
				col.order = append(col.order, id)
			}
			col.items[id] = rec
		}
		col.spec.Seed = nil
		s.collections[name] = col
	}
	return s
}

// Collections returns the served collection names, sorted.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// List returns page (0-based) of size records in insertion order plus the
// collection total.
func (s *Store) List(name string, page, size int) ([]map[string]any, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, 0, err
	}
	total := len(col.order)
	if page < 0 || size <= 0 {
		return []map[string]any{}, total, nil
	}
	start := page * size
	if start >= total {
		return []map[string]any{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	out := make([]map[string]any, 0, end-start)
	for _, id := range col.order[start:end] {
		out = append(out, cloneRecord(col.items[id]))
	}
	return out, total, nil
}

// Get returns the record with id.
func (s *Store) Get(name, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	rec, ok := col.items[id]
	if !ok {
		return nil, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("%w: %s/%s", ErrNotFound, name, id)}
	}
	return cloneRecord(rec), nil
}

// Create stores payload under a fresh id. Any id in the payload is replaced.
func (s *Store) Create(name string, payload map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if err := col.validate(payload); err != nil {
		return nil, err
	}
	rec := cloneRecord(payload)
	id := s.ids()
	rec["id"] = id
	col.items[id] = rec
	col.order = append(col.order, id)
	return cloneRecord(rec), nil
}

// Update replaces the record identified by payload["id"].
func (s *Store) Update(name string, payload map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	id := idOf(payload)
	if id == "" {
		return nil, StatusError{
			Code:   http.StatusUnprocessableEntity,
			Err:    errors.New("memstore: id is required for update"),
			Fields: map[string][]string{"id": {"Required"}},
		}
	}
	if _, ok := col.items[id]; !ok {
		return nil, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("%w: %s/%s", ErrNotFound, name, id)}
	}
	if err := col.validate(payload); err != nil {
		return nil, err
	}
	rec := cloneRecord(payload)
	rec["id"] = id
	col.items[id] = rec
	return cloneRecord(rec), nil
}

// Delete removes the record with id.
func (s *Store) Delete(name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, err := s.collection(name)
	if err != nil {
		return err
	}
	if _, ok := col.items[id]; !ok {
		return StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("%w: %s/%s", ErrNotFound, name, id)}
	}
	delete(col.items, id)
	for i, existing := range col.order {
		if existing == id {
			col.order = append(col.order[:i], col.order[i+1:]...)
			break
		}
	}
	return nil
}

// Recent returns up to limit records (0 means all), newest first by the
// collection's DateKey.
func (s *Store) Recent(name string, limit int) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(col.order))
	for i := len(col.order) - 1; i >= 0; i-- {
		out = append(out, cloneRecord(col.items[col.order[i]]))
	}
	if key := col.spec.DateKey; key != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return fmt.Sprint(out[i][key]) > fmt.Sprint(out[j][key])
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Names returns id/name pairs for the collection, filtered and ranked by query
// the same way Search does, capped at limit (0 means no cap).
func (s *Store) Names(name, query string, limit int) ([]NameEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	entries := make([]NameEntry, 0, len(col.order))
	for _, id := range col.order {
		label, _ := col.items[id][col.spec.LabelKey].(string)
		entries = append(entries, NameEntry{ID: id, Name: label})
	}
	return Search(entries, query, limit), nil
}

func (s *Store) collection(name string) (*collection, error) {
	col, ok := s.collections[strings.Trim(name, "/")]
	if !ok {
		return nil, StatusError{Code: http.StatusNotFound, Err: fmt.Errorf("%w: %s", ErrUnknownCollection, name)}
	}
	return col, nil
}

func (c *collection) validate(payload map[string]any) error {
	fields := make(map[string][]string)
	for _, key := range c.spec.Required {
		value, ok := payload[key]
		if !ok || value == nil {
			fields[key] = append(fields[key], "Required")
			continue
		}
		if str, isStr := value.(string); isStr && strings.TrimSpace(str) == "" {
			fields[key] = append(fields[key], "Required")
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return StatusError{
		Code:   http.StatusUnprocessableEntity,
		Err:    fmt.Errorf("memstore: %s: validation failed", c.spec.Name),
		Fields: fields,
	}
}

func idOf(rec map[string]any) string {
	switch v := rec["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cloneRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
