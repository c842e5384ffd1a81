package parser

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formgrid/pkg/schema"
)

const (
	extensionNamespace    = "x-formgrid"
	kindExtension         = extensionNamespace + "-kind"
	labelExtension        = extensionNamespace + "-label"
	hiddenExtension       = extensionNamespace + "-hidden"
	orderExtension        = extensionNamespace + "-order"
	idKeyExtension        = extensionNamespace + "-id-key"
	remoteSourceExtension = "x-remote-source"
	endpointExtension     = "x-endpoint"
)

// convertProperty maps one property onto a Field. Explicit extensions win
// over inference from type and format.
func convertProperty(key string, ref *openapi3.SchemaRef, required bool) (schema.Field, error) {
	field := schema.Field{Key: key, Required: required, Kind: schema.KindText}
	if ref == nil || ref.Value == nil {
		return field, nil
	}
	src := ref.Value
	ext := extensionsOf(src)

	field.Kind = inferKind(src)
	field.Label = strings.TrimSpace(src.Title)

	if label, ok := stringExtension(ext, labelExtension); ok {
		field.Label = label
	}
	if hidden, ok := ext[hiddenExtension].(bool); ok {
		field.Hidden = hidden
	}
	if src.ReadOnly {
		field.Hidden = true
	}

	if remote := remoteSource(ext); remote != nil {
		field.RemoteSource = remote
		field.Kind = schema.KindDynamicOption
	}
	if raw, ok := stringExtension(ext, kindExtension); ok {
		kind, err := schema.ParseKind(raw)
		if err != nil {
			return schema.Field{}, fmt.Errorf("openapi parser: property %q: %w", key, err)
		}
		field.Kind = kind
	}
	return field, nil
}

func inferKind(src *openapi3.Schema) schema.Kind {
	switch strings.ToLower(strings.TrimSpace(src.Format)) {
	case "email", "idn-email":
		return schema.KindEmail
	case "date", "date-time":
		return schema.KindDate
	case "uri", "url", "iri", "uri-reference":
		return schema.KindURL
	case "phone", "tel":
		return schema.KindPhone
	}
	if src.Pattern == "^[0-9]+$" {
		return schema.KindPhone
	}
	return schema.KindText
}

// remoteSource reads x-remote-source, falling back to an x-endpoint block
// (url, valueField, labelField, resultsPath).
func remoteSource(ext map[string]any) *schema.RemoteSource {
	if raw, ok := ext[remoteSourceExtension].(map[string]any); ok {
		src := &schema.RemoteSource{
			Path:           firstString(raw, "path", "url"),
			OptionValueKey: firstString(raw, "optionValueKey", "valueKey", "valueField"),
			OptionLabelKey: firstString(raw, "optionLabelKey", "labelKey", "labelField"),
			ResultsPath:    firstString(raw, "resultsPath"),
		}
		if src.Path != "" {
			return src
		}
	}
	if raw, ok := ext[endpointExtension].(map[string]any); ok {
		src := &schema.RemoteSource{
			Path:           firstString(raw, "url", "path"),
			OptionValueKey: firstString(raw, "valueField"),
			OptionLabelKey: firstString(raw, "labelField"),
			ResultsPath:    firstString(raw, "resultsPath"),
		}
		if src.Path != "" {
			return src
		}
	}
	return nil
}

// extensionsOf merges extensions declared on allOf members with the schema's
// own.
func extensionsOf(src *openapi3.Schema) map[string]any {
	out := make(map[string]any)
	for _, member := range src.AllOf {
		if member == nil || member.Value == nil {
			continue
		}
		for k, v := range extensionsOf(member.Value) {
			out[k] = v
		}
	}
	for k, v := range src.Extensions {
		out[k] = v
	}
	return out
}

func stringExtension(ext map[string]any, key string) (string, bool) {
	value, ok := ext[key].(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
