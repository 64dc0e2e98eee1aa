package repl

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"
	"bitpack/logging"
	"bitpack/runtime"
	luart "bitpack/runtime/lua"
	"bitpack/serialization"
	"bitpack/shared"
)

// CommandHandler executes one parsed command line and returns its display output
type CommandHandler func(c Call) (string, error)

// Call is a parsed command line. Rest is the raw text after the command
// name, for commands whose argument may contain spaces.
type Call struct {
	Name string
	Args []string
	Rest string
}

type command struct {
	usage   string
	help    string
	handler CommandHandler
}

// InterpreterConfig configures a new Interpreter
type InterpreterConfig struct {
	Definitions *bitfield.Definitions
	Serializers *serialization.SerializerRegistry
	Logger      logging.Logger
}

// Interpreter holds the session state shared by the interactive and the
// piped loop: the current value, the selected schema and its record.
type Interpreter struct {
	defs        *bitfield.Definitions
	serializers *serialization.SerializerRegistry
	runtimes    *runtime.RuntimeManager
	lua         *luart.LuaRuntime
	logger      logging.Logger
	commands    map[string]command

	value  *bits.Value
	padded *bits.Padded

	def    bitfield.SchemaDef
	schema *bitfield.Schema
	record *bitfield.Record

	exited bool
}

// NewInterpreter creates an interpreter with the built-in commands and a Lua runtime
func NewInterpreter(config InterpreterConfig) (*Interpreter, error) {
	if config.Definitions == nil {
		config.Definitions = &bitfield.Definitions{}
	}
	if config.Serializers == nil {
		config.Serializers = serialization.NewDefaultSerializerRegistry()
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	i := &Interpreter{
		defs:        config.Definitions,
		serializers: config.Serializers,
		runtimes:    runtime.NewRuntimeManager(),
		lua:         luart.NewRuntime(),
		logger:      config.Logger.WithComponent("repl"),
		commands:    make(map[string]command),
		value:       bits.Zero(),
	}

	if err := i.runtimes.RegisterRuntime(i.lua); err != nil {
		return nil, err
	}
	i.registerCommands()
	return i, nil
}

// RegisterCommand adds a command. Registering an existing name fails.
func (i *Interpreter) RegisterCommand(name, usage, help string, handler CommandHandler) error {
	if _, exists := i.commands[name]; exists {
		return errors.NewInvalidValueError("COMMAND_EXISTS",
			fmt.Sprintf("command %s is already registered", name))
	}
	i.commands[name] = command{usage: usage, help: help, handler: handler}
	return nil
}

// Commands returns the registered command names, sorted
func (i *Interpreter) Commands() []string {
	names := make([]string, 0, len(i.commands))
	for name := range i.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one command line. Blank lines and # comments produce no output.
func (i *Interpreter) Execute(line string) (string, error) {
	c, ok := parseCall(line)
	if !ok {
		return "", nil
	}

	cmd, exists := i.commands[c.Name]
	if !exists {
		return "", errors.NewParseError("UNKNOWN_COMMAND",
			fmt.Sprintf("unknown command %q, try :help", c.Name))
	}

	start := time.Now()
	out, err := cmd.handler(c)
	if err != nil {
		i.logger.ErrorBit(err, logging.StringField("command", c.Name))
		return "", err
	}

	i.logger.Debug("command executed",
		logging.StringField("command", c.Name),
		logging.DurationField("took", time.Since(start)))
	return out, nil
}

// Exited reports whether :exit was executed
func (i *Interpreter) Exited() bool {
	return i.exited
}

// Close releases the script runtimes
func (i *Interpreter) Close() error {
	return i.runtimes.CloseAll()
}

// SelectSchema makes the named schema current with an all-zero record.
func (i *Interpreter) SelectSchema(name string) error {
	def, ok := i.defs.Find(name)
	if !ok {
		return errors.NewInvalidValueError("UNKNOWN_SCHEMA",
			fmt.Sprintf("no schema named %s", name)).WithContext("schemas", strings.Join(i.schemaNames(), ","))
	}
	schema, err := def.Schema()
	if err != nil {
		return err
	}
	rec, err := schema.Create(nil)
	if err != nil {
		return err
	}

	i.def, i.schema, i.record = def, schema, rec
	i.logger.Info("schema selected",
		logging.StringField("schema", name),
		logging.IntField("width", schema.TotalWidth()))
	return nil
}

// Schema returns the current schema, or nil
func (i *Interpreter) Schema() *bitfield.Schema {
	return i.schema
}

// Record returns the current record, or nil
func (i *Interpreter) Record() *bitfield.Record {
	return i.record
}

// Value returns the current value
func (i *Interpreter) Value() *bits.Value {
	return i.value
}

func (i *Interpreter) schemaNames() []string {
	names := make([]string, len(i.defs.Schemas))
	for n, def := range i.defs.Schemas {
		names[n] = def.Name
	}
	return names
}

// fieldNames lists the fields and computed fields of the current schema.
func (i *Interpreter) fieldNames() []string {
	if i.schema == nil {
		return nil
	}
	names := i.schema.Names()
	for _, c := range i.def.Computed {
		names = append(names, c.Name)
	}
	return names
}

func (i *Interpreter) requireRecord() (*bitfield.Record, error) {
	if i.record == nil {
		return nil, errors.NewInvalidValueError("NO_SCHEMA", "no schema selected, use :schema <name>")
	}
	return i.record, nil
}

// setValue replaces the current value and leaves padded mode.
func (i *Interpreter) setValue(v *bits.Value) string {
	i.value, i.padded = v, nil
	return shared.FormatValueForDisplay(v)
}

func (i *Interpreter) showValue() string {
	if i.padded != nil {
		return shared.FormatValueForDisplay(i.padded)
	}
	return shared.FormatValueForDisplay(i.value)
}

// parseCall splits a line into the command name and its arguments.
func parseCall(line string) (Call, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Call{}, false
	}

	name, rest := line, ""
	if at := strings.IndexFunc(line, unicode.IsSpace); at >= 0 {
		name, rest = line[:at], strings.TrimSpace(line[at:])
	}
	return Call{Name: name, Args: strings.Fields(rest), Rest: rest}, true
}

func (i *Interpreter) helpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range i.Commands() {
		cmd := i.commands[name]
		fmt.Fprintf(&b, "  %-34s %s\n", cmd.usage, cmd.help)
	}
	b.WriteString("Values are decimal, 0b binary or 0x hex literals.")
	return b.String()
}
