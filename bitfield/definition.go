package bitfield

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitpack/errors"

	"gopkg.in/yaml.v3"
)

// FieldDef is the serialized form of a FieldSpec
type FieldDef struct {
	Name  string `json:"name" yaml:"name"`
	Width int    `json:"width" yaml:"width"`
}

// ComputedDef describes a derived field backed by Lua chunks. Get must
// return the derived value; Set receives it as the global "value" and
// assigns the underlying fields.
type ComputedDef struct {
	Name string `json:"name" yaml:"name"`
	Get  string `json:"get" yaml:"get"`
	Set  string `json:"set,omitempty" yaml:"set,omitempty"`
}

// SchemaDef is the serialized form of a Schema
type SchemaDef struct {
	Name     string        `json:"name" yaml:"name"`
	Fields   []FieldDef    `json:"fields" yaml:"fields"`
	Computed []ComputedDef `json:"computed,omitempty" yaml:"computed,omitempty"`
}

// Definitions is the top level of a schema file
type Definitions struct {
	Schemas []SchemaDef `json:"schemas" yaml:"schemas"`
}

// Schema compiles the definition.
func (d SchemaDef) Schema() (*Schema, error) {
	fieldSpecs := make([]FieldSpec, len(d.Fields))
	for i, f := range d.Fields {
		fieldSpecs[i] = FieldSpec{Name: f.Name, Width: f.Width}
	}
	return NewSchema(d.Name, fieldSpecs...)
}

// ComputedField returns the named computed field definition.
func (d SchemaDef) ComputedField(name string) (ComputedDef, bool) {
	for _, c := range d.Computed {
		if c.Name == name {
			return c, true
		}
	}
	return ComputedDef{}, false
}

// DefinitionOf converts a schema back to its serialized form.
func DefinitionOf(s *Schema) SchemaDef {
	def := SchemaDef{Name: s.name, Fields: make([]FieldDef, len(s.fields))}
	for i, f := range s.fields {
		def.Fields[i] = FieldDef{Name: f.Name, Width: f.Width}
	}
	return def
}

// ParseDefinitions decodes a schema document. format is "json" or "yaml".
func ParseDefinitions(data []byte, format string) (*Definitions, error) {
	defs := &Definitions{}

	switch format {
	case "json":
		if err := json.Unmarshal(data, defs); err != nil {
			return nil, errors.NewParseError("BAD_SCHEMA_FILE",
				fmt.Sprintf("failed to parse JSON schema definitions: %v", err)).Wrap(err)
		}
	default:
		if err := yaml.Unmarshal(data, defs); err != nil {
			return nil, errors.NewParseError("BAD_SCHEMA_FILE",
				fmt.Sprintf("failed to parse YAML schema definitions: %v", err)).Wrap(err)
		}
	}

	for _, def := range defs.Schemas {
		if _, err := def.Schema(); err != nil {
			return nil, err
		}
	}

	return defs, nil
}

// LoadDefinitions reads a schema document from path. The extension selects
// JSON (.json); anything else is read as YAML.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, "SCHEMA_READ_FAILED",
			fmt.Sprintf("failed to read schema file %s", path))
	}

	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return ParseDefinitions(data, format)
}

// Find returns the definition with the given name.
func (d *Definitions) Find(name string) (SchemaDef, bool) {
	for _, def := range d.Schemas {
		if def.Name == name {
			return def, true
		}
	}
	return SchemaDef{}, false
}
