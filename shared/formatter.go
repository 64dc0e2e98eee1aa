package shared

import (
	"fmt"
	"strings"

	"bitpack/bitfield"
	"bitpack/bits"

	"github.com/funvibe/funbit/pkg/funbit"
)

// FormatValueForDisplay formats values for REPL and batch output
func FormatValueForDisplay(value interface{}) string {
	switch v := value.(type) {
	case *bits.Padded:
		// Padded values keep their leading zeros: 0b00010110
		return v.String()

	case *bits.Value:
		// Plain values show decimal and binary: 22 (0b10110)
		return fmt.Sprintf("%s (%s)", v.Text(10), v.String())

	case *bitfield.Record:
		return v.String()

	case []byte:
		return FormatBytes(v)

	case *funbit.BitString:
		return formatBitstringAsBytes(v)

	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", value)

	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)

	case nil:
		return "nil"

	default:
		return fmt.Sprintf("%v", value)
	}
}

// FormatBytes renders a byte slice as <<42,0,0,0>>
func FormatBytes(buf []byte) string {
	return formatBitstringAsBytes(funbit.NewBitStringFromBytes(buf))
}

// FormatBits renders every bit of a padded value as <<1, 0, 1>>, leading
// zeros included.
func FormatBits(p *bits.Padded) string {
	if p.Width() == 0 {
		return "<<>>"
	}
	digits := strings.TrimPrefix(p.String(), "0b")
	return "<<" + strings.Join(strings.Split(digits, ""), ", ") + ">>"
}

// formatBitstringAsBytes formats a bitstring as <<42,0,0,0>>
func formatBitstringAsBytes(bitString *funbit.BitString) string {
	if bitString == nil || bitString.Length() == 0 {
		return "<<>>"
	}

	bytes := bitString.ToBytes()
	byteStrings := make([]string, len(bytes))
	for i, b := range bytes {
		byteStrings[i] = fmt.Sprintf("%d", b)
	}

	return "<<" + strings.Join(byteStrings, ",") + ">>"
}

// FormatField renders one field of a record with its position in the
// packed value.
func FormatField(f bitfield.Field, v *bits.Value) string {
	return fmt.Sprintf("%s = %s  [bits %d:%d, width %d]", f.Name, v.Text(10), f.Offset, f.Stop(), f.Width)
}

// FormatRecordTable renders a record one field per line, aligned.
func FormatRecordTable(rec *bitfield.Record) string {
	fields := rec.Schema().Fields()
	width := 0
	for _, f := range fields {
		if len(f.Name) > width {
			width = len(f.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d bits)\n", rec.Schema().Name(), rec.Schema().TotalWidth())
	for i, nv := range rec.Values() {
		f := fields[i]
		fmt.Fprintf(&b, "  %-*s  bits %d-%d  %s\n", width, f.Name, f.Offset, f.Stop()-1, nv.Value.Text(10))
	}
	fmt.Fprintf(&b, "  packed: %s", rec.Packed().Value().Text(10))
	return b.String()
}
