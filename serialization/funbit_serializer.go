package serialization

import (
	"fmt"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"

	"github.com/funvibe/funbit/pkg/funbit"
)

// segmentBits is the widest integer segment emitted for a field. Wider
// fields are split into consecutive segments, most significant first.
const segmentBits = 32

// FunbitSerializer builds the packed record with funbit, one integer
// segment per field, and pads the result with zero bits to a whole byte.
type FunbitSerializer struct {
	version string
}

// NewFunbitSerializer creates a new funbit serializer
func NewFunbitSerializer() *FunbitSerializer {
	return &FunbitSerializer{
		version: "1.0.0",
	}
}

type segment struct {
	field string
	shift int
	size  int
}

// segmentsOf lays out the segments of a schema and the trailing padding.
func segmentsOf(schema *bitfield.Schema) ([]segment, int) {
	var segs []segment
	for _, f := range schema.Fields() {
		if head := f.Width % segmentBits; head != 0 {
			segs = append(segs, segment{field: f.Name, shift: f.Width - head, size: head})
		}
		for shift := f.Width/segmentBits*segmentBits - segmentBits; shift >= 0; shift -= segmentBits {
			segs = append(segs, segment{field: f.Name, shift: shift, size: segmentBits})
		}
	}
	return segs, (8 - schema.TotalWidth()%8) % 8
}

// Serialize converts a record to funbit-built bytes
func (fs *FunbitSerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("funbit", "serialize", "record is nil")
	}

	segs, pad := segmentsOf(rec.Schema())
	builder := funbit.NewBuilder()
	for _, seg := range segs {
		v, err := rec.Get(seg.field)
		if err != nil {
			return nil, serializeError("funbit", err)
		}
		part := v.Rsh(uint(seg.shift)).And(lowMask(seg.size)).Uint64()
		funbit.AddInteger(builder, int64(part), funbit.WithSize(uint(seg.size)))
	}
	if pad > 0 {
		funbit.AddInteger(builder, int64(0), funbit.WithSize(uint(pad)))
	}

	bs, err := funbit.Build(builder)
	if err != nil {
		return nil, serializeError("funbit", err)
	}
	return bs.ToBytes(), nil
}

// Deserialize matches the segments back out of data
func (fs *FunbitSerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	want := (schema.TotalWidth() + 7) / 8
	if len(data) != want {
		return nil, deserializeError("funbit", errors.NewInvalidValueError("BAD_LENGTH",
			fmt.Sprintf("schema %s packs into %d bytes, got %d", schema.Name(), want, len(data))))
	}

	segs, pad := segmentsOf(schema)
	parts := make([]uint, len(segs))
	var padding uint

	matcher := funbit.NewMatcher()
	for i, seg := range segs {
		funbit.Integer(matcher, &parts[i], funbit.WithSize(uint(seg.size)))
	}
	if pad > 0 {
		funbit.Integer(matcher, &padding, funbit.WithSize(uint(pad)))
	}

	if _, err := funbit.Match(matcher, funbit.NewBitStringFromBytes(data)); err != nil {
		return nil, malformed("funbit", err.Error())
	}
	if padding != 0 {
		return nil, malformed("funbit", "padding bits are not zero")
	}

	values := make(map[string]*bits.Value, len(schema.Names()))
	for i, seg := range segs {
		acc, ok := values[seg.field]
		if !ok {
			acc = bits.Zero()
		}
		values[seg.field] = acc.Lsh(uint(seg.size)).Or(bits.FromUint64(uint64(parts[i])))
	}

	rec, err := schema.Create(values)
	if err != nil {
		return nil, deserializeError("funbit", err)
	}
	return rec, nil
}

// lowMask has the low size bits set; size never exceeds segmentBits.
func lowMask(size int) *bits.Value {
	return bits.FromUint64(1<<uint(size) - 1)
}

// GetName returns the name of the serializer
func (fs *FunbitSerializer) GetName() string {
	return "funbit"
}

// GetVersion returns the version of the serializer
func (fs *FunbitSerializer) GetVersion() string {
	return fs.version
}
