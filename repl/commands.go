package repl

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"bitpack/bits"
	"bitpack/errors"
	"bitpack/logging"
	"bitpack/shared"
	"bitpack/snowflake"
)

// textFormats are the serializer formats whose output is printable as is.
// Everything else is shown and read as hex.
var textFormats = map[string]bool{"json": true, "yaml": true}

func (i *Interpreter) registerCommands() {
	register := func(name, usage, help string, handler CommandHandler) {
		_ = i.RegisterCommand(name, usage, help, handler)
	}

	// current value
	register("bin", "bin <digits>", "set the value from binary digits", i.cmdBin)
	register("hex", "hex <digits>", "set the value from hex digits", i.cmdHex)
	register("int", "int <literal>", "set the value from a literal", i.cmdInt)
	register("bytes", "bytes <hex> [little]", "set the value from bytes", i.cmdBytes)
	register("value", "value", "show the value", i.cmdValue)
	register("bit", "bit <i>", "read one bit", i.cmdBit)
	register("setbit", "setbit <i> <0|1>", "write one bit", i.cmdSetBit)
	register("slice", "slice <start> [stop]", "read a bit range", i.cmdSlice)
	register("setslice", "setslice <start> <stop> <literal>", "write a bit range", i.cmdSetSlice)
	register("len", "len", "show the length in bits", i.cmdLen)
	register("tobytes", "tobytes [little]", "show the value as bytes", i.cmdToBytes)
	register("op", "op <name> <literal> [mod]", "apply add sub mul div floordiv mod pow lsh rsh and or xor", i.cmdOp)
	register("pad", "pad <width>", "hold the value at a fixed width", i.cmdPad)

	// schemas and records
	register(":schemas", ":schemas", "list schemas", i.cmdSchemas)
	register(":schema", ":schema <name>", "select a schema", i.cmdSchema)
	register("new", "new <field>=<literal>...", "create a record", i.cmdNew)
	register("unpack", "unpack <literal>", "create a record from a packed value", i.cmdUnpack)
	register("get", "get <field>", "read a field", i.cmdGet)
	register("set", "set <field> <literal>", "write a field", i.cmdSet)
	register("show", "show", "show the record", i.cmdShow)
	register("computed", "computed [name [literal]]", "list, read or write computed fields", i.cmdComputed)
	register("encode", "encode <format>", "serialize the record", i.cmdEncode)
	register("decode", "decode <format> <data>", "deserialize a record", i.cmdDecode)
	register("convert", "convert <from> <to> <data>", "re-encode data in another format", i.cmdConvert)
	register(":formats", ":formats", "list formats, * marks the default", i.cmdFormats)
	register("snowflake", "snowflake <id>", "decode a snowflake ID", i.cmdSnowflake)
	register(":lua", ":lua <code>", "run Lua against the record", i.cmdLua)

	// session
	register(":help", ":help", "show this help", func(Call) (string, error) { return i.helpText(), nil })
	register(":exit", ":exit", "leave the REPL", i.cmdExit)
	register(":quit", ":quit", "leave the REPL", i.cmdExit)
}

func wantArgs(c Call, min, max int) error {
	if len(c.Args) < min || len(c.Args) > max {
		return errors.NewParseError("BAD_ARGUMENTS",
			fmt.Sprintf("%s takes %d to %d arguments, got %d", c.Name, min, max, len(c.Args)))
	}
	return nil
}

func parseInt(text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, errors.NewParseError("BAD_INTEGER",
			fmt.Sprintf("%q is not an integer", text)).Wrap(err)
	}
	return n, nil
}

// parseStop reads the stop position of a slice; "end" is the open end.
func parseStop(text string) (int, error) {
	if text == "end" {
		return bits.End, nil
	}
	return parseInt(text)
}

func parseOrder(c Call, at int) (bits.ByteOrder, error) {
	if len(c.Args) > at {
		return bits.ParseByteOrder(c.Args[at])
	}
	return bits.BigEndian, nil
}

func parseHex(text string) ([]byte, error) {
	text = strings.Join(strings.Fields(text), "")
	if len(text) >= 2 && strings.EqualFold(text[:2], "0x") {
		text = text[2:]
	}
	buf, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.NewParseError("BAD_HEX",
			fmt.Sprintf("invalid hex data: %v", err)).Wrap(err)
	}
	return buf, nil
}

func (i *Interpreter) cmdBin(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	v, err := bits.FromBinary(c.Args[0])
	if err != nil {
		return "", err
	}
	return i.setValue(v), nil
}

func (i *Interpreter) cmdHex(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	v, err := bits.FromHex(c.Args[0])
	if err != nil {
		return "", err
	}
	return i.setValue(v), nil
}

func (i *Interpreter) cmdInt(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	v, err := bits.Parse(c.Args[0])
	if err != nil {
		return "", err
	}
	return i.setValue(v), nil
}

func (i *Interpreter) cmdBytes(c Call) (string, error) {
	if err := wantArgs(c, 1, 2); err != nil {
		return "", err
	}
	buf, err := parseHex(c.Args[0])
	if err != nil {
		return "", err
	}
	order, err := parseOrder(c, 1)
	if err != nil {
		return "", err
	}
	return i.setValue(bits.FromBytes(buf, order)), nil
}

func (i *Interpreter) cmdValue(c Call) (string, error) {
	if err := wantArgs(c, 0, 0); err != nil {
		return "", err
	}
	return i.showValue(), nil
}

func (i *Interpreter) cmdBit(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	n, err := parseInt(c.Args[0])
	if err != nil {
		return "", err
	}

	var bit *bits.Value
	if i.padded != nil {
		bit, err = i.padded.Bit(n)
	} else {
		bit, err = i.value.Bit(n)
	}
	if err != nil {
		return "", err
	}
	return bit.Text(10), nil
}

func (i *Interpreter) cmdSetBit(c Call) (string, error) {
	if err := wantArgs(c, 2, 2); err != nil {
		return "", err
	}
	n, err := parseInt(c.Args[0])
	if err != nil {
		return "", err
	}
	bit, err := strconv.ParseUint(c.Args[1], 10, 8)
	if err != nil {
		return "", errors.NewParseError("BAD_BIT",
			fmt.Sprintf("%q is not a bit", c.Args[1])).Wrap(err)
	}

	if i.padded != nil {
		err = i.padded.SetBit(n, uint(bit))
		if err == nil {
			i.value = i.padded.Value()
		}
	} else {
		err = i.value.SetBit(n, uint(bit))
	}
	if err != nil {
		return "", err
	}
	return i.showValue(), nil
}

func (i *Interpreter) cmdSlice(c Call) (string, error) {
	if err := wantArgs(c, 1, 2); err != nil {
		return "", err
	}
	start, err := parseInt(c.Args[0])
	if err != nil {
		return "", err
	}
	stop := bits.End
	if len(c.Args) == 2 {
		if stop, err = parseStop(c.Args[1]); err != nil {
			return "", err
		}
	}

	var part *bits.Value
	if i.padded != nil {
		part, err = i.padded.Slice(start, stop)
	} else {
		part, err = i.value.Slice(start, stop)
	}
	if err != nil {
		return "", err
	}
	return shared.FormatValueForDisplay(part), nil
}

func (i *Interpreter) cmdSetSlice(c Call) (string, error) {
	if err := wantArgs(c, 3, 3); err != nil {
		return "", err
	}
	start, err := parseInt(c.Args[0])
	if err != nil {
		return "", err
	}
	stop, err := parseStop(c.Args[1])
	if err != nil {
		return "", err
	}
	x, err := bits.Parse(c.Args[2])
	if err != nil {
		return "", err
	}

	if i.padded != nil {
		err = i.padded.SetSlice(start, stop, x)
		if err == nil {
			i.value = i.padded.Value()
		}
	} else {
		err = i.value.SetSlice(start, stop, x)
	}
	if err != nil {
		return "", err
	}
	return i.showValue(), nil
}

func (i *Interpreter) cmdLen(c Call) (string, error) {
	if err := wantArgs(c, 0, 0); err != nil {
		return "", err
	}
	if i.padded != nil {
		return strconv.Itoa(i.padded.Len()), nil
	}
	return strconv.Itoa(i.value.Len()), nil
}

func (i *Interpreter) cmdToBytes(c Call) (string, error) {
	if err := wantArgs(c, 0, 1); err != nil {
		return "", err
	}
	order, err := parseOrder(c, 0)
	if err != nil {
		return "", err
	}
	if i.padded != nil {
		return shared.FormatBytes(i.padded.Bytes(order)), nil
	}
	return shared.FormatBytes(i.value.Bytes(order)), nil
}

func (i *Interpreter) cmdOp(c Call) (string, error) {
	if err := wantArgs(c, 2, 3); err != nil {
		return "", err
	}
	x, err := bits.Parse(c.Args[1])
	if err != nil {
		return "", err
	}
	var m *bits.Value
	if len(c.Args) == 3 {
		if m, err = bits.Parse(c.Args[2]); err != nil {
			return "", err
		}
	}

	result, err := apply(c.Args[0], i.value, x, m)
	if err != nil {
		return "", err
	}

	if i.padded != nil {
		// stays in padded mode; a result wider than the width is rejected
		if err := i.padded.Set(result); err != nil {
			return "", err
		}
		i.value = i.padded.Value()
		return i.showValue(), nil
	}
	return i.setValue(result), nil
}

// apply evaluates one binary operation. m is only used by pow.
func apply(op string, v, x, m *bits.Value) (*bits.Value, error) {
	switch op {
	case "add":
		return v.Add(x), nil
	case "sub":
		return v.Sub(x)
	case "mul":
		return v.Mul(x), nil
	case "div":
		return v.Div(x)
	case "floordiv":
		return v.FloorDiv(x)
	case "mod":
		return v.Mod(x)
	case "pow":
		return v.Pow(x, m)
	case "lsh", "rsh":
		if !x.IsUint64() || x.Uint64() > 1<<20 {
			return nil, errors.NewRangeError("SHIFT_TOO_LARGE",
				fmt.Sprintf("shift count %s is too large", x.Text(10)))
		}
		if op == "lsh" {
			return v.Lsh(uint(x.Uint64())), nil
		}
		return v.Rsh(uint(x.Uint64())), nil
	case "and":
		return v.And(x), nil
	case "or":
		return v.Or(x), nil
	case "xor":
		return v.Xor(x), nil
	default:
		return nil, errors.NewParseError("UNKNOWN_OPERATION",
			fmt.Sprintf("unknown operation %q", op))
	}
}

func (i *Interpreter) cmdPad(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	width, err := parseInt(c.Args[0])
	if err != nil {
		return "", err
	}
	p, err := bits.NewPadded(i.value, width)
	if err != nil {
		return "", err
	}
	i.padded = p
	return fmt.Sprintf("%s  %s", i.showValue(), shared.FormatBits(p)), nil
}

func (i *Interpreter) cmdSchemas(c Call) (string, error) {
	if len(i.defs.Schemas) == 0 {
		return "no schemas defined", nil
	}

	var lines []string
	for _, def := range i.defs.Schemas {
		marker := " "
		if i.schema != nil && def.Name == i.def.Name {
			marker = "*"
		}
		fields := make([]string, len(def.Fields))
		total := 0
		for n, f := range def.Fields {
			fields[n] = fmt.Sprintf("%s:%d", f.Name, f.Width)
			total += f.Width
		}
		lines = append(lines, fmt.Sprintf("%s %s (%d bits) %s", marker, def.Name, total, strings.Join(fields, " ")))
	}
	return strings.Join(lines, "\n"), nil
}

func (i *Interpreter) cmdSchema(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	if err := i.SelectSchema(c.Args[0]); err != nil {
		return "", err
	}
	return shared.FormatRecordTable(i.record), nil
}

func (i *Interpreter) cmdNew(c Call) (string, error) {
	if _, err := i.requireRecord(); err != nil {
		return "", err
	}

	values := make(map[string]*bits.Value, len(c.Args))
	for _, arg := range c.Args {
		name, literal, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return "", errors.NewParseError("BAD_ASSIGNMENT",
				fmt.Sprintf("expected field=value, got %q", arg))
		}
		v, err := bits.Parse(literal)
		if err != nil {
			return "", err
		}
		values[name] = v
	}

	rec, err := i.schema.Create(values)
	if err != nil {
		return "", err
	}
	i.record = rec
	return rec.String(), nil
}

func (i *Interpreter) cmdUnpack(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	if _, err := i.requireRecord(); err != nil {
		return "", err
	}
	v, err := bits.Parse(c.Args[0])
	if err != nil {
		return "", err
	}
	rec, err := i.schema.FromPacked(v)
	if err != nil {
		return "", err
	}
	i.record = rec
	i.logger.Debug("record unpacked", logging.BitsField("packed", v))
	return rec.String(), nil
}

func (i *Interpreter) cmdGet(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	rec, err := i.requireRecord()
	if err != nil {
		return "", err
	}

	name := c.Args[0]
	if def, ok := i.def.ComputedField(name); ok {
		v, err := i.lua.Computed(def).Read(rec)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s  [computed]", name, v.Text(10)), nil
	}

	v, err := rec.Get(name)
	if err != nil {
		return "", err
	}
	f, _ := i.schema.Field(name)
	return shared.FormatField(f, v), nil
}

func (i *Interpreter) cmdSet(c Call) (string, error) {
	if err := wantArgs(c, 2, 2); err != nil {
		return "", err
	}
	rec, err := i.requireRecord()
	if err != nil {
		return "", err
	}
	v, err := bits.Parse(c.Args[1])
	if err != nil {
		return "", err
	}

	name := c.Args[0]
	if def, ok := i.def.ComputedField(name); ok {
		err = i.lua.Computed(def).Write(rec, v)
	} else {
		err = rec.Set(name, v)
	}
	if err != nil {
		return "", err
	}
	return rec.String(), nil
}

func (i *Interpreter) cmdShow(c Call) (string, error) {
	rec, err := i.requireRecord()
	if err != nil {
		return "", err
	}
	return shared.FormatRecordTable(rec), nil
}

func (i *Interpreter) cmdComputed(c Call) (string, error) {
	if err := wantArgs(c, 0, 2); err != nil {
		return "", err
	}
	if _, err := i.requireRecord(); err != nil {
		return "", err
	}

	if len(c.Args) == 0 {
		if len(i.def.Computed) == 0 {
			return fmt.Sprintf("%s has no computed fields", i.def.Name), nil
		}
		lines := make([]string, len(i.def.Computed))
		for n, def := range i.def.Computed {
			mode := "read-write"
			if def.Set == "" {
				mode = "read-only"
			}
			lines[n] = fmt.Sprintf("%s (%s)", def.Name, mode)
		}
		return strings.Join(lines, "\n"), nil
	}

	if _, ok := i.def.ComputedField(c.Args[0]); !ok {
		return "", errors.NewUnknownFieldError(c.Args[0]).WithContext("schema", i.def.Name)
	}
	if len(c.Args) == 1 {
		return i.cmdGet(c)
	}
	return i.cmdSet(c)
}

func (i *Interpreter) cmdEncode(c Call) (string, error) {
	if err := wantArgs(c, 0, 1); err != nil {
		return "", err
	}
	rec, err := i.requireRecord()
	if err != nil {
		return "", err
	}

	s, err := i.serializers.GetDefaultSerializer()
	if len(c.Args) == 1 {
		s, err = i.serializers.GetSerializer(c.Args[0])
	}
	if err != nil {
		return "", err
	}

	data, err := s.Serialize(rec)
	if err != nil {
		return "", err
	}
	return showEncoded(s.GetName(), data), nil
}

// showEncoded renders serialized data: text formats as is, the rest as hex.
func showEncoded(format string, data []byte) string {
	if textFormats[format] {
		return strings.TrimRight(string(data), "\n")
	}
	return hex.EncodeToString(data)
}

// readEncoded is the inverse of showEncoded.
func readEncoded(format, text string) ([]byte, error) {
	if textFormats[format] {
		return []byte(text), nil
	}
	return parseHex(text)
}

// argText returns the raw text after the first n arguments of c.
func argText(c Call, n int) string {
	rest := c.Rest
	for k := 0; k < n; k++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		rest = strings.TrimPrefix(rest, c.Args[k])
	}
	return strings.TrimSpace(rest)
}

func (i *Interpreter) cmdDecode(c Call) (string, error) {
	if len(c.Args) < 2 {
		return "", wantArgs(c, 2, 2)
	}
	if _, err := i.requireRecord(); err != nil {
		return "", err
	}

	format := c.Args[0]
	s, err := i.serializers.GetSerializer(format)
	if err != nil {
		return "", err
	}

	data, err := readEncoded(format, argText(c, 1))
	if err != nil {
		return "", err
	}

	rec, err := s.Deserialize(i.schema, data)
	if err != nil {
		return "", err
	}
	i.record = rec
	return rec.String(), nil
}

// cmdConvert re-encodes data between formats through the current schema,
// leaving the record alone.
func (i *Interpreter) cmdConvert(c Call) (string, error) {
	if len(c.Args) < 3 {
		return "", wantArgs(c, 3, 3)
	}
	if _, err := i.requireRecord(); err != nil {
		return "", err
	}

	from, to := c.Args[0], c.Args[1]
	data, err := readEncoded(from, argText(c, 2))
	if err != nil {
		return "", err
	}
	out, err := i.serializers.ConvertFormat(i.schema, data, from, to)
	if err != nil {
		return "", err
	}
	return showEncoded(to, out), nil
}

func (i *Interpreter) cmdFormats(c Call) (string, error) {
	if err := wantArgs(c, 0, 0); err != nil {
		return "", err
	}
	def, _ := i.serializers.GetDefaultSerializer()

	var b strings.Builder
	for k, name := range i.serializers.ListSerializers() {
		s, err := i.serializers.GetSerializer(name)
		if err != nil {
			return "", err
		}
		if k > 0 {
			b.WriteString("\n")
		}
		marker := " "
		if def != nil && def.GetName() == name {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-8s v%s", marker, name, s.GetVersion())
	}
	return b.String(), nil
}

func (i *Interpreter) cmdSnowflake(c Call) (string, error) {
	if err := wantArgs(c, 1, 1); err != nil {
		return "", err
	}
	v, err := bits.Parse(c.Args[0])
	if err != nil {
		return "", err
	}
	if !v.IsUint64() {
		return "", errors.NewOverflowError("ID_TOO_WIDE",
			fmt.Sprintf("%s does not fit in 64 bits", v.Text(10)))
	}

	id, err := snowflake.Parse(v.Uint64())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\ncreated_at: %s", id, id.CreatedAt().Format(time.RFC3339Nano)), nil
}

func (i *Interpreter) cmdLua(c Call) (string, error) {
	if c.Rest == "" {
		return "", wantArgs(c, 1, 1)
	}
	rec, err := i.requireRecord()
	if err != nil {
		return "", err
	}

	if err := i.runtimes.BindAll(rec); err != nil {
		return "", err
	}
	rt, err := i.runtimes.GetRuntime("lua")
	if err != nil {
		return "", err
	}
	return rt.Exec(c.Rest)
}

func (i *Interpreter) cmdExit(c Call) (string, error) {
	i.exited = true
	return "", nil
}
