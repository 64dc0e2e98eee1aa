package bits

import (
	"fmt"

	"bitpack/errors"

	"github.com/funvibe/funbit/pkg/funbit"
)

// BitString returns the minimal byte encoding of v as a funbit bitstring.
func (v *Value) BitString() *funbit.BitString {
	return funbit.NewBitStringFromBytes(v.Bytes(BigEndian))
}

// BitString returns the fixed-width byte encoding of p as a funbit bitstring.
func (p *Padded) BitString() *funbit.BitString {
	return funbit.NewBitStringFromBytes(p.Bytes(BigEndian))
}

// FromBitString reads a byte-aligned funbit bitstring as a big-endian value.
func FromBitString(bs *funbit.BitString) (*Value, error) {
	if bs == nil {
		return Zero(), nil
	}
	if bs.Length()%8 != 0 {
		return nil, errors.NewParseError("UNALIGNED_BITSTRING",
			fmt.Sprintf("bitstring of %d bits is not byte aligned", bs.Length()))
	}
	return FromBytes(bs.ToBytes(), BigEndian), nil
}
