package bitfield

import (
	"fmt"
	"sort"
	"strings"

	"bitpack/bits"
	"bitpack/errors"
)

// Record is one packed value laid out by a Schema. Field values are not
// stored separately; Get and Set slice the packed value on every call.
//
// A Record is not safe for concurrent use.
type Record struct {
	schema *Schema
	packed *bits.Padded
}

// NamedValue is a field name with its current value.
type NamedValue struct {
	Name  string
	Value *bits.Value
}

// Create builds a record from named values. Omitted fields are zero.
func (s *Schema) Create(values map[string]*bits.Value) (*Record, error) {
	rec, err := s.empty()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := s.lookup(name); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		if err := rec.Set(name, values[name]); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// CreateUint64 is Create for fields that fit in 64 bits.
func (s *Schema) CreateUint64(values map[string]uint64) (*Record, error) {
	converted := make(map[string]*bits.Value, len(values))
	for name, n := range values {
		converted[name] = bits.FromUint64(n)
	}
	return s.Create(converted)
}

// FromPacked wraps an already packed value.
func (s *Schema) FromPacked(v *bits.Value) (*Record, error) {
	packed, err := bits.NewPadded(v, s.total)
	if err != nil {
		return nil, err
	}
	return &Record{schema: s, packed: packed}, nil
}

// FromUint64 wraps an already packed 64-bit value.
func (s *Schema) FromUint64(n uint64) (*Record, error) {
	return s.FromPacked(bits.FromUint64(n))
}

// FromBytes reads a packed value from buf.
func (s *Schema) FromBytes(buf []byte, order bits.ByteOrder) (*Record, error) {
	return s.FromPacked(bits.FromBytes(buf, order))
}

func (s *Schema) empty() (*Record, error) {
	return s.FromPacked(bits.Zero())
}

// Schema returns the layout of r.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (*bits.Value, error) {
	f, err := r.schema.lookup(name)
	if err != nil {
		return nil, err
	}
	return r.packed.Slice(f.Offset, f.Stop())
}

// Uint64 returns the named field as a uint64. Fields wider than 64 bits
// fail with RANGE when their value does not fit.
func (r *Record) Uint64(name string) (uint64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.NewRangeError("NOT_UINT64",
			fmt.Sprintf("field %q holds %d which exceeds 64 bits", name, v))
	}
	return v.Uint64(), nil
}

// Set stores v in the named field. A value wider than the field fails with
// OVERFLOW and leaves the record unchanged.
func (r *Record) Set(name string, v *bits.Value) error {
	f, err := r.schema.lookup(name)
	if err != nil {
		return err
	}
	if v.Len() > f.Width {
		return errors.NewOverflowError("FIELD_OVERFLOW",
			fmt.Sprintf("value %d needs %d bits, field %q holds %d", v, v.Len(), name, f.Width)).
			WithContext("field", name)
	}
	return r.packed.SetSlice(f.Offset, f.Stop(), v)
}

// SetUint64 stores n in the named field.
func (r *Record) SetUint64(name string, n uint64) error {
	return r.Set(name, bits.FromUint64(n))
}

// Packed returns a copy of the packed value.
func (r *Record) Packed() *bits.Padded {
	return r.packed.Copy()
}

// Bytes encodes the packed value in ceil(TotalWidth/8) bytes.
func (r *Record) Bytes(order bits.ByteOrder) []byte {
	return r.packed.Bytes(order)
}

// Values returns every field with its value in declaration order.
func (r *Record) Values() []NamedValue {
	out := make([]NamedValue, 0, len(r.schema.fields))
	for _, f := range r.schema.fields {
		v, err := r.packed.Slice(f.Offset, f.Stop())
		if err != nil {
			// offsets are validated against the width at schema compile time
			panic(err)
		}
		out = append(out, NamedValue{Name: f.Name, Value: v})
	}
	return out
}

// Clone returns an independent copy of r sharing the same schema.
func (r *Record) Clone() *Record {
	return &Record{schema: r.schema, packed: r.packed.Copy()}
}

// String renders r as "Name(a=5, b=2)".
func (r *Record) String() string {
	parts := make([]string, 0, len(r.schema.fields))
	for _, nv := range r.Values() {
		parts = append(parts, fmt.Sprintf("%s=%d", nv.Name, nv.Value))
	}
	return fmt.Sprintf("%s(%s)", r.schema.name, strings.Join(parts, ", "))
}
