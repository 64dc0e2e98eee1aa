package bits

import (
	"fmt"
	"math/big"

	"bitpack/errors"
)

// resolve turns slice positions into concrete positions inside a sequence
// of length bits. An inverted range collapses to the empty range at stop.
func resolve(start, stop, length int) (int, int, error) {
	switch {
	case stop == End:
		stop = length
	case stop < 0:
		stop += length
	}
	if start < 0 {
		start += length
	}

	if start < 0 || stop < 0 {
		return 0, 0, errors.NewRangeError("RANGE_BEFORE_START",
			fmt.Sprintf("bit range %d:%d starts before bit 0", start, stop)).
			WithContext("length", length)
	}
	if stop > length {
		return 0, 0, errors.NewRangeError("RANGE_TOO_LARGE",
			fmt.Sprintf("bit range %d:%d too large for %d bits", start, stop, length)).
			WithContext("length", length)
	}
	if stop < start {
		start = stop
	}

	return start, stop, nil
}

func mask(span int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(span))
	return m.Sub(m, big.NewInt(1))
}

func bitAt(m *big.Int, length, i int) (*Value, error) {
	if i < 0 || i >= length {
		return nil, errors.NewIndexError("INDEX_OUT_OF_RANGE",
			fmt.Sprintf("bit index %d out of range for %d bits", i, length))
	}
	return FromUint64(uint64(m.Bit(length - i - 1))), nil
}

func sliceOf(m *big.Int, length, start, stop int) (*Value, error) {
	start, stop, err := resolve(start, stop, length)
	if err != nil {
		return nil, err
	}

	offset := uint(length - stop)
	out := new(big.Int).Rsh(m, offset)
	return fromInt(out.And(out, mask(stop-start))), nil
}

func withSlice(m *big.Int, length, start, stop int, x *Value) (*big.Int, error) {
	start, stop, err := resolve(start, stop, length)
	if err != nil {
		return nil, err
	}

	span := stop - start
	if x.Len() > span {
		return nil, errors.NewRangeError("VALUE_TOO_WIDE",
			fmt.Sprintf("value %s needs %d bits, range %d:%d holds %d", x, x.Len(), start, stop, span))
	}

	offset := uint(length - stop)
	cleared := new(big.Int).AndNot(m, new(big.Int).Lsh(mask(span), offset))
	return cleared.Or(cleared, new(big.Int).Lsh(x.int(), offset)), nil
}

func withBit(m *big.Int, length, i int, bit uint) (*big.Int, error) {
	if i < 0 || i >= length {
		return nil, errors.NewIndexError("INDEX_OUT_OF_RANGE",
			fmt.Sprintf("bit index %d out of range for %d bits", i, length))
	}
	if bit > 1 {
		return nil, errors.NewInvalidValueError("NOT_A_BIT",
			fmt.Sprintf("bit value must be 0 or 1, got %d", bit))
	}
	return new(big.Int).SetBit(m, length-i-1, bit), nil
}
