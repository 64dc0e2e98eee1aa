package bits

import (
	"fmt"
	"math/big"
	"strings"

	"bitpack/errors"
)

// ByteOrder selects how byte buffers map to magnitudes.
type ByteOrder int

const (
	// BigEndian puts the most significant byte first. It is the zero value.
	BigEndian ByteOrder = iota
	LittleEndian
)

// String returns "big" or "little".
func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "little"
	}
	return "big"
}

// ParseByteOrder accepts "big", "little" and the empty string (big).
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "big-endian", "be":
		return BigEndian, nil
	case "little", "little-endian", "le":
		return LittleEndian, nil
	default:
		return BigEndian, errors.NewParseError("BAD_BYTE_ORDER",
			fmt.Sprintf("unknown byte order %q", s))
	}
}

// FromBinary parses binary digits with an optional 0b prefix.
func FromBinary(text string) (*Value, error) {
	digits := trimPrefix(text, "0b")
	return parseDigits(text, digits, 2)
}

// FromHex parses hexadecimal digits with an optional 0x prefix.
func FromHex(text string) (*Value, error) {
	digits := trimPrefix(text, "0x")
	return parseDigits(text, digits, 16)
}

// Parse reads a binary (0b), hexadecimal (0x) or decimal literal.
func Parse(text string) (*Value, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "0b"):
		return FromBinary(text)
	case strings.HasPrefix(lower, "0x"):
		return FromHex(text)
	case strings.HasPrefix(text, "-"):
		if _, ok := new(big.Int).SetString(text, 10); ok {
			return nil, errors.NewInvalidValueError("NEGATIVE_VALUE",
				fmt.Sprintf("value %s is negative", text))
		}
	}

	return parseDigits(text, text, 10)
}

func trimPrefix(text, prefix string) string {
	if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
		return text[len(prefix):]
	}
	return text
}

func parseDigits(text, digits string, base int) (*Value, error) {
	if digits == "" {
		return nil, errors.NewParseError("EMPTY_LITERAL",
			fmt.Sprintf("no digits in %q", text))
	}

	for i, r := range digits {
		if digitValue(r) >= base {
			return nil, errors.NewParseError("BAD_DIGIT",
				fmt.Sprintf("invalid base-%d digit %q in %q", base, r, text)).
				WithContext("position", i)
		}
	}

	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, errors.NewParseError("BAD_LITERAL",
			fmt.Sprintf("cannot parse %q as base %d", text, base))
	}
	return fromInt(n), nil
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return 1 << 8
	}
}

// FromBytes interprets buf as an unsigned integer in the given order.
func FromBytes(buf []byte, order ByteOrder) *Value {
	if order == LittleEndian {
		buf = reversed(buf)
	}
	return fromInt(new(big.Int).SetBytes(buf))
}

// Bytes returns the shortest encoding of v that covers Len bits. Zero
// encodes as an empty slice.
func (v *Value) Bytes(order ByteOrder) []byte {
	buf := v.int().Bytes()
	if order == LittleEndian {
		return reversed(buf)
	}
	return buf
}

// fixedBytes encodes m into exactly n bytes; m must fit.
func fixedBytes(m *big.Int, n int, order ByteOrder) []byte {
	buf := m.FillBytes(make([]byte, n))
	if order == LittleEndian {
		return reversed(buf)
	}
	return buf
}

func reversed(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}
