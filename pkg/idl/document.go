// Package idl translates the data definitions of Swagger 2 and OpenAPI 3
// documents into OMG IDL modules.
package idl

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrNoDefinitions is returned when a document declares no schemas.
var ErrNoDefinitions = errors.New("document has no schema definitions")

// Document is the subset of a Swagger or OpenAPI document that carries data
// definitions. JSON documents parse as well, JSON being a subset of YAML.
type Document struct {
	Swagger     string     `yaml:"swagger"`
	OpenAPI     string     `yaml:"openapi"`
	Info        Info       `yaml:"info"`
	Definitions Schemas    `yaml:"definitions"`
	Components  Components `yaml:"components"`
}

// Info is the document metadata.
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Components holds OpenAPI 3 reusable objects.
type Components struct {
	Schemas Schemas `yaml:"schemas"`
}

// Schema is a JSON schema as used by Swagger and OpenAPI.
type Schema struct {
	Ref         string    `yaml:"$ref"`
	Type        string    `yaml:"type"`
	Format      string    `yaml:"format"`
	Description string    `yaml:"description"`
	Properties  Schemas   `yaml:"properties"`
	Required    []string  `yaml:"required"`
	Items       *Schema   `yaml:"items"`
	Enum        []string  `yaml:"enum"`
	AllOf       []*Schema `yaml:"allOf"`
}

// NamedSchema is an entry of an ordered schema map.
type NamedSchema struct {
	Name   string
	Schema *Schema
}

// Schemas is a schema map that keeps document order.
type Schemas []NamedSchema

// UnmarshalYAML reads a mapping node pair by pair.
func (s *Schemas) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of schemas", node.Line)
	}
	out := make(Schemas, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var schema Schema
		if err := node.Content[i+1].Decode(&schema); err != nil {
			return fmt.Errorf("schema %q: %w", node.Content[i].Value, err)
		}
		out = append(out, NamedSchema{Name: node.Content[i].Value, Schema: &schema})
	}
	*s = out
	return nil
}

// Lookup returns the schema with the given name.
func (s Schemas) Lookup(name string) (*Schema, bool) {
	for _, named := range s {
		if named.Name == name {
			return named.Schema, true
		}
	}
	return nil, false
}

// Parse reads a Swagger 2 or OpenAPI 3 document.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoDefinitions
		}
		return nil, fmt.Errorf("failed to parse api document: %w", err)
	}
	if len(doc.Schemas()) == 0 {
		return nil, ErrNoDefinitions
	}
	return &doc, nil
}

// Schemas returns the Swagger definitions, or the OpenAPI component schemas
// when there are none.
func (d *Document) Schemas() Schemas {
	if len(d.Definitions) > 0 {
		return d.Definitions
	}
	return d.Components.Schemas
}
