package console

import (
	"errors"
	"log/slog"

	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/listing"
	"github.com/goliatone/go-formgrid/pkg/options"
)

// NoticeKind classifies a notice by the component that raised it.
type NoticeKind string

const (
	NoticeFetch      NoticeKind = "fetch"
	NoticeValidation NoticeKind = "validation"
	NoticeSubmit     NoticeKind = "submit"
	NoticeOptions    NoticeKind = "options"
	NoticeDetail     NoticeKind = "detail"
	NoticeDelete     NoticeKind = "delete"
	NoticeSaved      NoticeKind = "saved"
	NoticeState      NoticeKind = "state"
)

// Notice is a user-facing message recorded by the screen instead of
// propagating an error.
type Notice struct {
	Level   slog.Level `json:"level"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// classify maps an error onto its notice kind.
func classify(err error) NoticeKind {
	var (
		fetchErr   *listing.FetchError
		valErr     *form.ValidationError
		submitErr  *form.SubmitError
		resolveErr *options.ResolutionError
	)
	switch {
	case errors.As(err, &fetchErr):
		return NoticeFetch
	case errors.As(err, &valErr):
		return NoticeValidation
	case errors.As(err, &submitErr):
		return NoticeSubmit
	case errors.As(err, &resolveErr):
		return NoticeOptions
	case errors.Is(err, ErrDeleteDisabled):
		return NoticeDelete
	default:
		return NoticeState
	}
}
