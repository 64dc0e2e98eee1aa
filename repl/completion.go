package repl

import (
	"sort"
	"strings"
)

// Completer implements readline.AutoCompleter. The first word completes to
// a command name; later words complete to schema, field or format names
// depending on the command.
type Completer struct {
	interp *Interpreter
}

// NewCompleter creates a completer for the interpreter's commands and state
func NewCompleter(interp *Interpreter) *Completer {
	return &Completer{interp: interp}
}

// findWordBoundaries returns the start of the word ending at pos.
func (c *Completer) findWordBoundaries(line []rune, pos int) int {
	start := pos
	for start > 0 && line[start-1] != ' ' && line[start-1] != '\t' {
		start--
	}
	return start
}

// Do returns the suffixes completing the word under the cursor and the
// length of the prefix already typed.
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	defer func() {
		if r := recover(); r != nil {
			newLine, length = nil, 0
		}
	}()

	if pos > len(line) {
		pos = len(line)
	}
	start := c.findWordBoundaries(line, pos)
	prefix := string(line[start:pos])
	before := strings.Fields(string(line[:start]))

	var candidates []string
	switch {
	case len(before) == 0:
		candidates = c.interp.Commands()
	default:
		candidates = c.argumentCandidates(before[0], len(before), prefix)
	}

	var suggestions [][]rune
	for _, candidate := range candidates {
		if strings.HasPrefix(candidate, prefix) {
			// readline expects the text to append, not the whole word
			suffix := strings.TrimPrefix(candidate, prefix)
			if !strings.HasSuffix(candidate, "=") {
				suffix += " "
			}
			suggestions = append(suggestions, []rune(suffix))
		}
	}
	return suggestions, len([]rune(prefix))
}

// argumentCandidates lists the values for argument n (1-based) of cmd.
func (c *Completer) argumentCandidates(cmd string, n int, prefix string) []string {
	switch cmd {
	case ":schema":
		if n == 1 {
			return c.interp.schemaNames()
		}
	case "get", "set":
		if n == 1 {
			return c.interp.fieldNames()
		}
	case "computed":
		if n == 1 {
			var names []string
			for _, def := range c.interp.def.Computed {
				names = append(names, def.Name)
			}
			return names
		}
	case "new":
		if strings.Contains(prefix, "=") {
			return nil
		}
		if c.interp.schema == nil {
			return nil
		}
		var names []string
		for _, name := range c.interp.schema.Names() {
			names = append(names, name+"=")
		}
		return names
	case "encode", "decode":
		if n == 1 {
			return c.interp.serializers.ListSerializers()
		}
	case "convert":
		if n <= 2 {
			return c.interp.serializers.ListSerializers()
		}
	case "op":
		if n == 1 {
			ops := []string{"add", "sub", "mul", "div", "floordiv", "mod", "pow", "lsh", "rsh", "and", "or", "xor"}
			sort.Strings(ops)
			return ops
		}
	case "bytes":
		if n == 2 {
			return []string{"big", "little"}
		}
	case "tobytes":
		if n == 1 {
			return []string{"big", "little"}
		}
	}
	return nil
}
