package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/client"
	"github.com/goliatone/go-formgrid/pkg/validation"
)

var (
	// ErrAlreadyOpen is returned by Open when a session is active.
	ErrAlreadyOpen = errors.New("form: a session is already open")
	// ErrNotEditing is returned when an operation requires the Editing state.
	ErrNotEditing = errors.New("form: not editing")
	// ErrNotOpen is returned by Cancel when no session is active.
	ErrNotOpen = errors.New("form: no open session")
	// ErrUnknownField is returned by SetField for keys outside the schema.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrReadOnlyField is returned by SetField for hidden fields.
	ErrReadOnlyField = errors.New("form: field is not editable")
	// ErrSessionAbandoned is returned when a submit completes after its
	// session was cancelled or replaced.
	ErrSessionAbandoned = errors.New("form: session abandoned before submit completed")
)

// ValidationError is the client-side failure: at least one field failed its
// rule. It never reaches the network.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Result.Errors))
	for k := range e.Result.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("form: validation failed for %s", strings.Join(keys, ", "))
}

// SubmitError is the server-side failure: the collaborator rejected the
// create or update. Fields holds any server field errors mapped onto schema
// keys; Form holds messages that could not be attributed to a field.
type SubmitError struct {
	Mode   Mode
	Err    error
	Fields map[string][]string
	Form   []string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("form: %s rejected: %v", e.Mode, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

func asStatus(err error, target **client.StatusError) bool {
	return errors.As(err, target)
}
