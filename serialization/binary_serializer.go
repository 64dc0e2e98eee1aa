package serialization

import (
	"fmt"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"
)

// BinarySerializer writes the packed value as ceil(width/8) bytes.
type BinarySerializer struct {
	version string
	order   bits.ByteOrder
}

// NewBinarySerializer creates a new big-endian binary serializer
func NewBinarySerializer() *BinarySerializer {
	return &BinarySerializer{
		version: "1.0.0",
		order:   bits.BigEndian,
	}
}

// WithByteOrder returns a copy of the serializer using order
func (bs *BinarySerializer) WithByteOrder(order bits.ByteOrder) *BinarySerializer {
	return &BinarySerializer{version: bs.version, order: order}
}

// GetName returns the name of the serializer
func (bs *BinarySerializer) GetName() string {
	return "binary"
}

// GetVersion returns the version of the serializer
func (bs *BinarySerializer) GetVersion() string {
	return bs.version
}

// Serialize converts a record to its packed bytes
func (bs *BinarySerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("binary", "serialize", "record is nil")
	}
	return rec.Bytes(bs.order), nil
}

// Deserialize reads packed bytes. The length must match the schema exactly.
func (bs *BinarySerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	want := (schema.TotalWidth() + 7) / 8
	if len(data) != want {
		return nil, deserializeError("binary", errors.NewInvalidValueError("BAD_LENGTH",
			fmt.Sprintf("schema %s packs into %d bytes, got %d", schema.Name(), want, len(data))))
	}

	rec, err := schema.FromBytes(data, bs.order)
	if err != nil {
		return nil, deserializeError("binary", err)
	}
	return rec, nil
}
