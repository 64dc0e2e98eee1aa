package lua

import (
	"fmt"
	"math"

	"bitpack/bits"
	"bitpack/errors"

	lua "github.com/yuin/gopher-lua"
)

// maxExact is the first integer a Lua number can no longer hold exactly.
const maxExact = 1 << 53

// luaValueToString converts a Lua value to its display form
func luaValueToString(value lua.LValue) string {
	switch value.Type() {
	case lua.LTNumber:
		num := float64(value.(lua.LNumber))
		if num == math.Trunc(num) && math.Abs(num) < 1<<63 {
			// Format as integer to avoid scientific notation
			return fmt.Sprintf("%.0f", num)
		}
		return fmt.Sprintf("%v", num)
	case lua.LTString:
		return string(value.(lua.LString))
	case lua.LTBool:
		return fmt.Sprintf("%v", bool(value.(lua.LBool)))
	case lua.LTNil:
		return "nil"
	default:
		return value.String()
	}
}

// toLua converts a bit value to a Lua number.
func toLua(v *bits.Value) (lua.LNumber, error) {
	if v.Len() > 53 {
		return 0, errors.NewRangeError("NOT_EXACT",
			fmt.Sprintf("value %s needs %d bits, Lua numbers hold 53", v.Text(10), v.Len()))
	}
	return lua.LNumber(float64(v.Uint64())), nil
}

// fromLua converts a Lua result to a bit value. Strings are parsed as
// literals, so "0x..." works for values too wide for a number.
func fromLua(value lua.LValue) (*bits.Value, error) {
	switch lv := value.(type) {
	case lua.LNumber:
		f := float64(lv)
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
			return nil, errors.NewInvalidValueError("NOT_INTEGRAL",
				fmt.Sprintf("%v is not an integer", f))
		case f < 0:
			return nil, errors.NewInvalidValueError("NEGATIVE_VALUE",
				fmt.Sprintf("%v is negative", f))
		case f >= maxExact:
			return nil, errors.NewRangeError("NOT_EXACT",
				fmt.Sprintf("%.0f is beyond the exact range of Lua numbers", f))
		}
		return bits.FromUint64(uint64(f)), nil
	case lua.LString:
		return bits.Parse(string(lv))
	default:
		return nil, errors.NewInvalidValueError("NOT_A_NUMBER",
			fmt.Sprintf("expected a number, got %s", value.Type().String()))
	}
}
