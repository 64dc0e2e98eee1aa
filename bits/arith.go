package bits

import (
	"fmt"
	"math/big"

	"bitpack/errors"
)

// Add returns v + x.
func (v *Value) Add(x *Value) *Value {
	return fromInt(new(big.Int).Add(v.int(), x.int()))
}

// Sub returns v - x. A negative difference fails with INVALID_VALUE.
func (v *Value) Sub(x *Value) (*Value, error) {
	d := new(big.Int).Sub(v.int(), x.int())
	if d.Sign() < 0 {
		return nil, errors.NewInvalidValueError("NEGATIVE_RESULT",
			fmt.Sprintf("%d - %d is negative", v, x))
	}
	return fromInt(d), nil
}

// Mul returns v * x.
func (v *Value) Mul(x *Value) *Value {
	return fromInt(new(big.Int).Mul(v.int(), x.int()))
}

// Div returns v / x rounded down. It is the same operation as FloorDiv;
// there is no fractional division on bit values.
func (v *Value) Div(x *Value) (*Value, error) {
	return v.FloorDiv(x)
}

// FloorDiv returns v / x rounded down.
func (v *Value) FloorDiv(x *Value) (*Value, error) {
	if x.IsZero() {
		return nil, divisionByZero("division")
	}
	return fromInt(new(big.Int).Quo(v.int(), x.int())), nil
}

// Mod returns v modulo x.
func (v *Value) Mod(x *Value) (*Value, error) {
	if x.IsZero() {
		return nil, divisionByZero("modulo")
	}
	return fromInt(new(big.Int).Rem(v.int(), x.int())), nil
}

// Pow returns v**exp, or v**exp mod m when m is not nil.
func (v *Value) Pow(exp, m *Value) (*Value, error) {
	var modulus *big.Int
	if m != nil {
		if m.IsZero() {
			return nil, divisionByZero("modular exponentiation")
		}
		modulus = m.int()
	}
	return fromInt(new(big.Int).Exp(v.int(), exp.int(), modulus)), nil
}

// Lsh returns v << n.
func (v *Value) Lsh(n uint) *Value {
	return fromInt(new(big.Int).Lsh(v.int(), n))
}

// Rsh returns v >> n.
func (v *Value) Rsh(n uint) *Value {
	return fromInt(new(big.Int).Rsh(v.int(), n))
}

// And returns v & x.
func (v *Value) And(x *Value) *Value {
	return fromInt(new(big.Int).And(v.int(), x.int()))
}

// Or returns v | x.
func (v *Value) Or(x *Value) *Value {
	return fromInt(new(big.Int).Or(v.int(), x.int()))
}

// Xor returns v ^ x.
func (v *Value) Xor(x *Value) *Value {
	return fromInt(new(big.Int).Xor(v.int(), x.int()))
}

// Cmp compares magnitudes and returns -1, 0 or +1.
func (v *Value) Cmp(x *Value) int {
	return v.int().Cmp(x.int())
}

// CmpInt64 compares v with n.
func (v *Value) CmpInt64(n int64) int {
	return v.int().Cmp(big.NewInt(n))
}

// Equal reports whether v and x hold the same magnitude.
func (v *Value) Equal(x *Value) bool {
	return v.Cmp(x) == 0
}

func divisionByZero(op string) error {
	return errors.NewInvalidValueError("DIVISION_BY_ZERO", op+" by zero")
}
