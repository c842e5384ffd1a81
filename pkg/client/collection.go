package client

import "context"

// ListResult is one page of raw records plus the collection total.
type ListResult struct {
	Items []map[string]any
	Total int
}

// Collection is the per-entity contract: GET <path>?pageNumber=N, GET
// <path>/<id>, POST <path>, update (POST <path>/edit or PUT <path>) and
// DELETE <path>/<id>.
type Collection interface {
	List(ctx context.Context, page, size int) (ListResult, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, payload map[string]any) (map[string]any, error)
	Update(ctx context.Context, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) error
}

// Fetcher retrieves an arbitrary JSON document, envelope already removed.
// Option lists for dynamic fields are fetched through it.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (any, error)
}

// UpdateMode selects the update route.
type UpdateMode string

const (
	// UpdateModeEdit posts the payload to <collection>/edit.
	UpdateModeEdit UpdateMode = "edit"
	// UpdateModePut sends the payload with PUT to <collection>.
	UpdateModePut UpdateMode = "put"
)

// ParseUpdateMode maps configuration strings onto an UpdateMode, defaulting to
// UpdateModeEdit.
func ParseUpdateMode(raw string) UpdateMode {
	switch UpdateMode(raw) {
	case UpdateModePut:
		return UpdateModePut
	default:
		return UpdateModeEdit
	}
}
