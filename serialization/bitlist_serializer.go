package serialization

import (
	"fmt"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"

	gobitfield "github.com/prysmaticlabs/go-bitfield"
)

// BitlistSerializer writes the packed record as an SSZ bitlist: bit i of
// the packed value, counted from the most significant bit, is bit i of the
// list, and a trailing length bit marks the width.
type BitlistSerializer struct {
	version string
}

// NewBitlistSerializer creates a new bitlist serializer
func NewBitlistSerializer() *BitlistSerializer {
	return &BitlistSerializer{
		version: "1.0.0",
	}
}

// Serialize converts a record to bitlist bytes
func (bs *BitlistSerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("bitlist", "serialize", "record is nil")
	}

	total := rec.Schema().TotalWidth()
	packed := rec.Packed()
	list := gobitfield.NewBitlist(uint64(total))
	for i := 0; i < total; i++ {
		bit, err := packed.Bit(i)
		if err != nil {
			return nil, serializeError("bitlist", err)
		}
		if bit.Truthy() {
			list.SetBitAt(uint64(i), true)
		}
	}
	return []byte(list), nil
}

// Deserialize reads a bitlist. Its length must equal the schema width.
func (bs *BitlistSerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	list := gobitfield.Bitlist(data)
	total := schema.TotalWidth()
	if list.Len() != uint64(total) || len(data) != total/8+1 {
		return nil, deserializeError("bitlist", errors.NewInvalidValueError("BAD_LENGTH",
			fmt.Sprintf("schema %s needs a bitlist of %d bits, got %d", schema.Name(), total, list.Len())))
	}

	packed, err := bits.NewPadded(bits.Zero(), total)
	if err != nil {
		return nil, deserializeError("bitlist", err)
	}
	for i := 0; i < total; i++ {
		if list.BitAt(uint64(i)) {
			if err := packed.SetBit(i, 1); err != nil {
				return nil, deserializeError("bitlist", err)
			}
		}
	}

	rec, err := schema.FromPacked(packed.Value())
	if err != nil {
		return nil, deserializeError("bitlist", err)
	}
	return rec, nil
}

// GetName returns the name of the serializer
func (bs *BitlistSerializer) GetName() string {
	return "bitlist"
}

// GetVersion returns the version of the serializer
func (bs *BitlistSerializer) GetVersion() string {
	return bs.version
}
