package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the supported input kinds.
type Kind string

const (
	KindText          Kind = "text"
	KindEmail         Kind = "email"
	KindDate          Kind = "date"
	KindDynamicOption Kind = "dynamicOption"
	KindPhone         Kind = "phone"
	KindURL           Kind = "url"
)

// Validation rule identifiers understood by pkg/validation. They are applied to
// non-empty values only; required-ness is tracked on the field itself.
const (
	RuleNone   = ""
	RuleEmail  = "email"
	RuleDate   = "isodate"
	RuleDigits = "digits"
	RuleURL    = "url"
)

// DateLayout is the canonical wire and display layout for date fields.
const DateLayout = "2006-01-02"

// Formatter converts a raw wire value into its draft string form. The boolean
// reports whether the value was present (nil values are treated as absent).
type Formatter func(value any) (string, bool)

// KindSpec is the dispatch entry for a kind: the widget renderers should use,
// the validation rule applied to non-empty input, and the value codec.
type KindSpec struct {
	Widget string
	Rule   string
	Format Formatter
}

var kindTable = map[Kind]KindSpec{
	KindText:          {Widget: "text", Rule: RuleNone, Format: formatScalar},
	KindEmail:         {Widget: "email", Rule: RuleEmail, Format: formatScalar},
	KindDate:          {Widget: "date", Rule: RuleDate, Format: formatDate},
	KindDynamicOption: {Widget: "select", Rule: RuleNone, Format: formatScalar},
	KindPhone:         {Widget: "tel", Rule: RuleDigits, Format: formatScalar},
	KindURL:           {Widget: "url", Rule: RuleURL, Format: formatScalar},
}

var kindAliases = map[string]Kind{
	"text":            KindText,
	"string":          KindText,
	"email":           KindEmail,
	"date":            KindDate,
	"dynamicoption":   KindDynamicOption,
	"dynamicdropdown": KindDynamicOption,
	"dymaicdropdown":  KindDynamicOption,
	"select":          KindDynamicOption,
	"phone":           KindPhone,
	"tel":             KindPhone,
	"url":             KindURL,
	"uri":             KindURL,
}

// ErrUnknownKind is returned for kind names outside the dispatch table.
var ErrUnknownKind = errors.New("schema: unknown field kind")

// ParseKind normalises a raw kind name, accepting the historical aliases used
// by existing screen definitions.
func ParseKind(raw string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if key == "" {
		return KindText, nil
	}
	if kind, ok := kindAliases[key]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, raw)
}

// Spec returns the dispatch entry for a kind.
func (k Kind) Spec() (KindSpec, bool) {
	spec, ok := kindTable[k]
	return spec, ok
}

func formatScalar(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v), true
		}
		return string(raw), true
	default:
		return fmt.Sprint(v), true
	}
}

func formatDate(value any) (string, bool) {
	s, ok := formatScalar(value)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", true
	}
	if _, err := time.Parse(DateLayout, trimmed); err == nil {
		return trimmed, true
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return trimmed, true
}
