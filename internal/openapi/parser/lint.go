package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Violation is one lint finding.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	return v.Location + " -> " + v.Message
}

var componentExtensions = map[string]bool{
	orderExtension: true,
	idKeyExtension: true,
}

var propertyExtensions = map[string]bool{
	kindExtension:   true,
	labelExtension:  true,
	hiddenExtension: true,
}

// Lint loads raw and reports unsupported x-formgrid extensions, malformed
// remote sources and components that cannot be converted into a schema.
// Components without properties are skipped.
func Lint(ctx context.Context, raw []byte) ([]Violation, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyDocument
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if doc.Components == nil {
		return nil, nil
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Violation
	for _, name := range names {
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		props := collectProperties(ref.Value)
		if len(props) == 0 {
			continue
		}
		base := "components > schemas > " + name
		out = append(out, lintExtensions(base, ref.Value.Extensions, componentExtensions)...)

		keys := make([]string, 0, len(props))
		for key := range props {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			prop := props[key]
			if prop == nil || prop.Value == nil {
				continue
			}
			loc := base + " > properties." + key
			ext := extensionsOf(prop.Value)
			out = append(out, lintExtensions(loc, ext, propertyExtensions)...)
			out = append(out, lintRemote(loc, ext)...)
		}

		if _, err := ComponentSchema(strings.ToLower(name), ref.Value); err != nil {
			out = append(out, Violation{Location: base, Message: err.Error()})
		}
	}
	return out, nil
}

func lintExtensions(loc string, ext map[string]any, allowed map[string]bool) []Violation {
	keys := make([]string, 0, len(ext))
	for key := range ext {
		if strings.HasPrefix(key, extensionNamespace) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var out []Violation
	for _, key := range keys {
		if !allowed[key] {
			out = append(out, Violation{Location: loc, Message: fmt.Sprintf("unsupported extension %q", key)})
			continue
		}
		switch key {
		case hiddenExtension:
			if _, ok := ext[key].(bool); !ok {
				out = append(out, Violation{Location: loc, Message: fmt.Sprintf("%s must be a boolean (got %T)", key, ext[key])})
			}
		case orderExtension:
			if _, ok := ext[key].([]any); !ok {
				out = append(out, Violation{Location: loc, Message: fmt.Sprintf("%s must be a list (got %T)", key, ext[key])})
			}
		default:
			if _, ok := ext[key].(string); !ok {
				out = append(out, Violation{Location: loc, Message: fmt.Sprintf("%s must be a string (got %T)", key, ext[key])})
			}
		}
	}
	return out
}

func lintRemote(loc string, ext map[string]any) []Violation {
	var out []Violation
	for _, key := range []string{remoteSourceExtension, endpointExtension} {
		raw, present := ext[key]
		if !present {
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			out = append(out, Violation{Location: loc, Message: fmt.Sprintf("%s must be an object (got %T)", key, raw)})
			continue
		}
		if firstString(obj, "path", "url") == "" {
			out = append(out, Violation{Location: loc, Message: fmt.Sprintf("%s needs a path or url", key)})
		}
	}
	return out
}
