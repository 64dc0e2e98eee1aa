// Package bitfield packs named fixed-width fields into a single padded
// integer. The first declared field occupies the most significant bits.
package bitfield

import (
	"fmt"

	"bitpack/errors"
)

// FieldSpec declares one field of a schema.
type FieldSpec struct {
	Name  string
	Width int
}

// Field is a compiled field with its offset from the most significant bit
// of the packed value.
type Field struct {
	Name   string
	Width  int
	Offset int
}

// Stop returns the position just past the field.
func (f Field) Stop() int {
	return f.Offset + f.Width
}

// Schema is an ordered, immutable layout of named fields. A Schema is safe
// to share between records.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
	total  int
}

// NewSchema compiles the given fields in order. Names must be unique and
// non-empty, and every width must be positive.
func NewSchema(name string, fieldSpecs ...FieldSpec) (*Schema, error) {
	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fieldSpecs)),
		index:  make(map[string]int, len(fieldSpecs)),
	}

	for _, fs := range fieldSpecs {
		if fs.Name == "" {
			return nil, errors.NewInvalidValueError("EMPTY_FIELD_NAME",
				fmt.Sprintf("schema %s: field %d has no name", name, len(s.fields)))
		}
		if _, dup := s.index[fs.Name]; dup {
			return nil, errors.NewInvalidValueError("DUPLICATE_FIELD",
				fmt.Sprintf("schema %s: field %q declared twice", name, fs.Name))
		}
		if fs.Width <= 0 {
			return nil, errors.NewInvalidValueError("BAD_FIELD_WIDTH",
				fmt.Sprintf("schema %s: field %q has width %d", name, fs.Name, fs.Width))
		}

		s.index[fs.Name] = len(s.fields)
		s.fields = append(s.fields, Field{Name: fs.Name, Width: fs.Width, Offset: s.total})
		s.total += fs.Width
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on an invalid layout. It is meant
// for package-level layouts.
func MustSchema(name string, fieldSpecs ...FieldSpec) *Schema {
	s, err := NewSchema(name, fieldSpecs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name used when rendering records.
func (s *Schema) Name() string {
	return s.name
}

// TotalWidth returns the sum of all field widths.
func (s *Schema) TotalWidth() int {
	return s.total
}

// Fields returns the compiled fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Offset returns the offset of the named field from the most significant bit.
func (s *Schema) Offset(name string) (int, error) {
	f, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return f.Offset, nil
}

func (s *Schema) lookup(name string) (Field, error) {
	f, ok := s.Field(name)
	if !ok {
		return Field{}, errors.NewUnknownFieldError(name).WithContext("schema", s.name)
	}
	return f, nil
}

// Builder assembles a Schema field by field.
//
//	schema, err := bitfield.NewBuilder("ObjectID").
//		Field("timestamp", 42).
//		Field("worker_id", 5).
//		Build()
type Builder struct {
	name       string
	fieldSpecs []FieldSpec
}

// NewBuilder starts a schema with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Field appends a field.
func (b *Builder) Field(name string, width int) *Builder {
	b.fieldSpecs = append(b.fieldSpecs, FieldSpec{Name: name, Width: width})
	return b
}

// Build compiles the collected fields.
func (b *Builder) Build() (*Schema, error) {
	return NewSchema(b.name, b.fieldSpecs...)
}
