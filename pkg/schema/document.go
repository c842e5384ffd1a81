package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the serialised form of a schema as it appears in JSON or YAML
// screen definitions.
type Document struct {
	Entity string  `json:"entity" yaml:"entity"`
	IDKey  string  `json:"idKey,omitempty" yaml:"idKey,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Build validates the document into a Schema.
func (d Document) Build() (*Schema, error) {
	return New(d.Entity, d.Fields, WithIDKey(d.IDKey))
}

// Parse decodes a JSON or YAML schema document and builds it.
func Parse(data []byte) (*Schema, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// ParseDocument decodes a JSON or YAML schema document without building it.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, fmt.Errorf("schema: document is empty")
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("schema: parse document: invalid JSON or YAML: %w", err)
	}
	return doc, nil
}
