package schema

import (
	"errors"
	"fmt"
	"strings"
)

// RemoteSource points a dynamic field at the collection that supplies its
// options.
type RemoteSource struct {
	Path           string `json:"path" yaml:"path"`
	OptionValueKey string `json:"optionValueKey,omitempty" yaml:"optionValueKey,omitempty"`
	OptionLabelKey string `json:"optionLabelKey,omitempty" yaml:"optionLabelKey,omitempty"`
	ResultsPath    string `json:"resultsPath,omitempty" yaml:"resultsPath,omitempty"`
}

// Field describes one form field. Key values are unique within a schema and
// map 1:1 to draft slots. Hidden fields travel with the draft (the identifier,
// typically) but are not rendered as inputs.
type Field struct {
	Key          string        `json:"key" yaml:"key"`
	Label        string        `json:"label,omitempty" yaml:"label,omitempty"`
	Kind         Kind          `json:"kind,omitempty" yaml:"kind,omitempty"`
	Required     bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Hidden       bool          `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	RemoteSource *RemoteSource `json:"remoteSource,omitempty" yaml:"remoteSource,omitempty"`
}

var (
	errFieldKeyMissing    = errors.New("schema: field key is required")
	errRemoteSourceNeeded = errors.New("schema: dynamicOption field requires a remote source path")
)

// DisplayLabel returns the label, falling back to the key.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Key
}

// IsDynamic reports whether the field resolves its options remotely.
func (f Field) IsDynamic() bool {
	return f.Kind == KindDynamicOption
}

func normaliseField(f Field) (Field, error) {
	f.Key = strings.TrimSpace(f.Key)
	if f.Key == "" {
		return Field{}, errFieldKeyMissing
	}
	kind, err := ParseKind(string(f.Kind))
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", f.Key, err)
	}
	f.Kind = kind
	f.Label = strings.TrimSpace(f.Label)

	if f.RemoteSource != nil {
		src := *f.RemoteSource
		src.Path = strings.TrimSpace(src.Path)
		src.OptionValueKey = strings.TrimSpace(src.OptionValueKey)
		src.OptionLabelKey = strings.TrimSpace(src.OptionLabelKey)
		src.ResultsPath = strings.Trim(strings.TrimSpace(src.ResultsPath), ".")
		if src.OptionValueKey == "" {
			src.OptionValueKey = "id"
		}
		f.RemoteSource = &src
	}

	if f.Kind == KindDynamicOption && (f.RemoteSource == nil || f.RemoteSource.Path == "") {
		return Field{}, fmt.Errorf("field %q: %w", f.Key, errRemoteSourceNeeded)
	}
	return f, nil
}
