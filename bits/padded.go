package bits

import (
	"fmt"
	"math/big"
	"strings"

	"bitpack/errors"
)

// Padded is a Value held at a fixed width. Positions are counted from the
// most significant bit of the declared width, so leading zeros are
// addressable. Any write that would need more than Width bits fails with
// OVERFLOW and leaves the value as it was.
type Padded struct {
	value *Value
	width int
}

// NewPadded wraps a copy of v at the given width.
func NewPadded(v *Value, width int) (*Padded, error) {
	if width < 0 {
		return nil, errors.NewInvalidValueError("NEGATIVE_WIDTH",
			fmt.Sprintf("width %d is negative", width))
	}
	p := &Padded{value: Zero(), width: width}
	if err := p.check(v.int()); err != nil {
		return nil, err
	}
	p.value = v.Copy()
	return p, nil
}

// Width returns the declared width. It never changes.
func (p *Padded) Width() int {
	return p.width
}

// Len returns the declared width in bits.
func (p *Padded) Len() int {
	return p.width
}

// Value returns a copy of the held value. Its Len is the minimal length,
// not the width.
func (p *Padded) Value() *Value {
	return p.value.Copy()
}

// Uint64 returns the low 64 bits of the held value.
func (p *Padded) Uint64() uint64 {
	return p.value.Uint64()
}

// Equal reports whether p holds the same magnitude as x.
func (p *Padded) Equal(x *Value) bool {
	return p.value.Equal(x)
}

// Copy returns an independent copy of p.
func (p *Padded) Copy() *Padded {
	return &Padded{value: p.value.Copy(), width: p.width}
}

func (p *Padded) check(m *big.Int) error {
	if m.BitLen() > p.width {
		return errors.NewOverflowError("WIDTH_EXCEEDED",
			fmt.Sprintf("value needs %d bits, width is %d", m.BitLen(), p.width)).
			WithContext("width", p.width)
	}
	return nil
}

// Set replaces the held value.
func (p *Padded) Set(v *Value) error {
	if err := p.check(v.int()); err != nil {
		return err
	}
	p.value = v.Copy()
	return nil
}

// Update replaces the held value with fn's result, e.g. for in-place
// arithmetic. fn receives a copy.
func (p *Padded) Update(fn func(cur *Value) (*Value, error)) error {
	next, err := fn(p.value.Copy())
	if err != nil {
		return err
	}
	return p.Set(next)
}

// AddInPlace adds x to the held value.
func (p *Padded) AddInPlace(x *Value) error {
	return p.Update(func(cur *Value) (*Value, error) {
		return cur.Add(x), nil
	})
}

// Bit returns bit i of the padded representation.
func (p *Padded) Bit(i int) (*Value, error) {
	return bitAt(p.value.int(), p.width, i)
}

// Slice returns bits [start, stop) of the padded representation.
func (p *Padded) Slice(start, stop int) (*Value, error) {
	return sliceOf(p.value.int(), p.width, start, stop)
}

// SetBit sets bit i of the padded representation.
func (p *Padded) SetBit(i int, bit uint) error {
	m, err := withBit(p.value.int(), p.width, i, bit)
	if err != nil {
		return err
	}
	return p.Set(fromInt(m))
}

// SetSlice replaces bits [start, stop) of the padded representation with x.
func (p *Padded) SetSlice(start, stop int, x *Value) error {
	m, err := withSlice(p.value.int(), p.width, start, stop, x)
	if err != nil {
		return err
	}
	return p.Set(fromInt(m))
}

// Bytes encodes the value in exactly ceil(Width/8) bytes.
func (p *Padded) Bytes(order ByteOrder) []byte {
	return fixedBytes(p.value.int(), (p.width+7)/8, order)
}

// String renders the value in binary zero-padded to the width, e.g.
// "0b00000100" for 4 at width 8.
func (p *Padded) String() string {
	digits := p.value.Text(2)
	if pad := p.width - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return "0b" + digits
}

// GoString renders p as "PaddedBits(00000100, 8)".
func (p *Padded) GoString() string {
	return fmt.Sprintf("PaddedBits(%s, %d)", strings.TrimPrefix(p.String(), "0b"), p.width)
}
