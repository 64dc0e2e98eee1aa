package repl

import (
	"bufio"
	"io"
	"os"
	"strings"

	"bitpack/errors"

	"github.com/chzyer/readline"
)

// REPLConfig configures a REPL
type REPLConfig struct {
	Prompt         string
	ContinuePrompt string
	HistoryFile    string
	HistorySize    int
	ShowWelcome    bool
	EnableColors   bool
	Version        string

	Interpreter  *Interpreter
	ErrorHandler errors.ErrorHandler

	// In and Out default to the process stdin and stdout
	In  io.Reader
	Out io.Writer
}

// REPL represents the Read-Eval-Print Loop
type REPL struct {
	config   REPLConfig
	interp   *Interpreter
	handler  errors.ErrorHandler
	display  *DisplayManager
	buffer   *MultiLineBuffer
	failures int

	// owned is set when the REPL created the interpreter itself
	owned bool
}

// NewREPLWithConfig creates a REPL around an interpreter
func NewREPLWithConfig(config REPLConfig) (*REPL, error) {
	owned := config.Interpreter == nil
	if owned {
		interp, err := NewInterpreter(InterpreterConfig{})
		if err != nil {
			return nil, err
		}
		config.Interpreter = interp
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = errors.NewDefaultErrorHandler()
	}
	if config.Prompt == "" {
		config.Prompt = "bits> "
	}
	if config.ContinuePrompt == "" {
		config.ContinuePrompt = "...   "
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 1000
	}
	if config.In == nil {
		config.In = os.Stdin
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	return &REPL{
		config:  config,
		interp:  config.Interpreter,
		handler: config.ErrorHandler,
		display: NewDisplayManager(config.Out, config.EnableColors),
		buffer:  NewMultiLineBuffer(),
		owned:   owned,
	}, nil
}

// Interpreter returns the interpreter the REPL drives
func (r *REPL) Interpreter() *Interpreter {
	return r.interp
}

// Failures returns the number of commands that failed so far
func (r *REPL) Failures() int {
	return r.failures
}

func (r *REPL) isInteractive() bool {
	f, ok := r.config.In.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Run starts the REPL loop: readline on a terminal, line by line otherwise.
// An interpreter passed in through REPLConfig stays open; closing it is up
// to the caller.
func (r *REPL) Run() error {
	if r.owned {
		defer func() {
			_ = r.interp.Close()
		}()
	}

	if r.isInteractive() {
		if r.config.ShowWelcome {
			r.display.ShowWelcome(r.config.Version, r.interp.schemaNames())
		}
		return r.runInteractive()
	}
	return r.RunPiped(r.config.In)
}

// runInteractive runs the REPL in interactive mode with readline
func (r *REPL) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.config.Prompt,
		HistoryFile:     r.config.HistoryFile,
		HistoryLimit:    r.config.HistorySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":exit",
		AutoComplete:    NewCompleter(r.interp),
	})
	if err != nil {
		return r.handler.Wrap(err, "READLINE_INIT_FAILED", "failed to initialize readline",
			errors.WithContextOption("history", r.config.HistoryFile))
	}
	defer func() {
		_ = rl.Close()
	}()

	for !r.interp.Exited() {
		rl.SetPrompt(r.display.Prompt(r.config.Prompt, r.config.ContinuePrompt, r.buffer))

		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(input) == 0 && !r.buffer.IsActive() {
					// Empty input + Ctrl+C means exit
					break
				}
				r.buffer.Clear()
				continue
			}
			if err == io.EOF {
				break
			}
			return r.handler.Wrap(err, "READ_ERROR", "read error")
		}

		if abort := r.processLine(input); abort != nil {
			return abort
		}
	}

	r.display.ShowGoodbye()
	return nil
}

// RunPiped executes every line read from in. Failed commands are reported
// and counted; only errors the handler marks as fatal stop the run.
func (r *REPL) RunPiped(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	line := 0

	for scanner.Scan() && !r.interp.Exited() {
		line++
		if abort := r.processLine(scanner.Text()); abort != nil {
			return abort
		}
	}

	if err := scanner.Err(); err != nil {
		return r.handler.Wrap(err, "STDIN_READ_ERROR", "error reading input",
			errors.WithContextOption("line", line+1))
	}
	if r.buffer.IsActive() {
		r.buffer.Clear()
		return errors.NewParseError("UNTERMINATED_LINE", "input ends with a continuation line").
			WithContext("line", line)
	}
	return nil
}

// processLine feeds one input line and runs the command once it is
// complete. It returns an error only when the session must stop.
func (r *REPL) processLine(line string) error {
	command, complete := r.buffer.Feed(line)
	if !complete || strings.TrimSpace(command) == "" {
		return nil
	}

	out, err := r.interp.Execute(command)
	if err != nil {
		r.failures++
		r.display.ShowError(err)
		if strategy := r.handler.Recover(err); strategy.Action == errors.RecoveryActionAbort {
			return r.handler.Handle(err)
		}
		return nil
	}

	r.display.ShowResult(out)
	return nil
}
