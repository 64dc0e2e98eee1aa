// Package bits implements arbitrary-width unsigned integers viewed as
// MSB-first bit sequences, and fixed-width padded variants of them.
package bits

import (
	"fmt"
	"math"
	"math/big"

	"bitpack/errors"
)

// End stands for "up to the last bit" when passed as the stop position of
// a slice.
const End = math.MaxInt

// Value is a non-negative integer of arbitrary precision addressed as a
// sequence of bits. Bit 0 is the most significant bit of the minimal
// representation, so a Value has no leading zero bits unless it is wrapped
// in a Padded.
//
// The zero Value is ready to use and holds 0.
type Value struct {
	mag *big.Int
}

// New returns a Value holding n. Negative input fails with an
// INVALID_VALUE error.
func New(n int64) (*Value, error) {
	if n < 0 {
		return nil, errors.NewInvalidValueError("NEGATIVE_VALUE",
			fmt.Sprintf("value %d is negative", n))
	}
	return &Value{mag: big.NewInt(n)}, nil
}

// FromUint64 returns a Value holding n.
func FromUint64(n uint64) *Value {
	return &Value{mag: new(big.Int).SetUint64(n)}
}

// FromBig returns a Value holding a copy of n.
func FromBig(n *big.Int) (*Value, error) {
	if n == nil {
		return Zero(), nil
	}
	if n.Sign() < 0 {
		return nil, errors.NewInvalidValueError("NEGATIVE_VALUE",
			fmt.Sprintf("value %s is negative", n.String()))
	}
	return &Value{mag: new(big.Int).Set(n)}, nil
}

// Zero returns a Value holding 0.
func Zero() *Value {
	return &Value{mag: new(big.Int)}
}

func fromInt(n *big.Int) *Value {
	return &Value{mag: n}
}

// int returns the magnitude. Callers must not modify the result.
func (v *Value) int() *big.Int {
	if v == nil || v.mag == nil {
		return new(big.Int)
	}
	return v.mag
}

// Len returns the number of bits in the minimal representation of v, which
// is its bit count and not its byte count. Zero has length 0.
func (v *Value) Len() int {
	return v.int().BitLen()
}

// Big returns a copy of the magnitude.
func (v *Value) Big() *big.Int {
	return new(big.Int).Set(v.int())
}

// Uint64 returns the low 64 bits of v.
func (v *Value) Uint64() uint64 {
	return v.int().Uint64()
}

// IsUint64 reports whether v fits in a uint64.
func (v *Value) IsUint64() bool {
	return v.int().IsUint64()
}

// IsZero reports whether v holds 0.
func (v *Value) IsZero() bool {
	return v.int().Sign() == 0
}

// Truthy reports whether v is non-zero.
func (v *Value) Truthy() bool {
	return !v.IsZero()
}

// Copy returns an independent copy of v.
func (v *Value) Copy() *Value {
	return fromInt(v.Big())
}

// Set replaces the magnitude of v with the one of x.
func (v *Value) Set(x *Value) {
	v.mag = x.Big()
}

// Bit returns bit i counted from the most significant bit.
func (v *Value) Bit(i int) (*Value, error) {
	return bitAt(v.int(), v.Len(), i)
}

// Slice returns the bits in [start, stop) as a new Value. Negative
// positions count back from Len, and End selects the remaining bits.
// An empty range yields zero.
func (v *Value) Slice(start, stop int) (*Value, error) {
	return sliceOf(v.int(), v.Len(), start, stop)
}

// SetBit sets bit i, counted from the most significant bit, to bit.
func (v *Value) SetBit(i int, bit uint) error {
	m, err := withBit(v.int(), v.Len(), i, bit)
	if err != nil {
		return err
	}
	v.mag = m
	return nil
}

// SetSlice replaces the bits in [start, stop) with the low bits of x.
// A rejected write leaves v untouched.
func (v *Value) SetSlice(start, stop int, x *Value) error {
	m, err := withSlice(v.int(), v.Len(), start, stop, x)
	if err != nil {
		return err
	}
	v.mag = m
	return nil
}

// Text returns the magnitude in the given base without prefix.
func (v *Value) Text(base int) string {
	return v.int().Text(base)
}

// String renders v as unpadded binary, e.g. "0b101".
func (v *Value) String() string {
	return "0b" + v.Text(2)
}

// GoString renders v as "Bits(101)".
func (v *Value) GoString() string {
	return fmt.Sprintf("Bits(%s)", v.Text(2))
}

// Format lets fmt render the magnitude with the integer verbs (%d, %x, %b, %o).
func (v *Value) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		if f.Flag('#') {
			fmt.Fprint(f, v.GoString())
			return
		}
		fmt.Fprint(f, v.String())
	default:
		v.int().Format(f, verb)
	}
}
