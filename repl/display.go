package repl

import (
	"fmt"
	"io"
)

var colors = map[string]string{
	"primary":      "\033[36m", // Cyan
	"continuation": "\033[90m", // Dark gray
	"reset":        "\033[0m",
	"success":      "\033[32m", // Green
	"error":        "\033[31m", // Red
	"info":         "\033[34m", // Blue
}

// DisplayManager writes prompts, results and errors for the REPL
type DisplayManager struct {
	out       io.Writer
	useColors bool
}

// NewDisplayManager creates a new display manager
func NewDisplayManager(out io.Writer, useColors bool) *DisplayManager {
	return &DisplayManager{out: out, useColors: useColors}
}

// Prompt returns the primary or the continuation prompt
func (dm *DisplayManager) Prompt(primary, continuation string, buffer *MultiLineBuffer) string {
	if buffer.IsActive() {
		return dm.paint(continuation, "continuation")
	}
	return dm.paint(primary, "primary")
}

func (dm *DisplayManager) paint(text, kind string) string {
	if !dm.useColors || text == "" {
		return text
	}
	return colors[kind] + text + colors["reset"]
}

// ShowResult prints a command result. Empty results print nothing.
func (dm *DisplayManager) ShowResult(result string) {
	if result == "" {
		return
	}
	fmt.Fprintln(dm.out, result)
}

// ShowError prints an error
func (dm *DisplayManager) ShowError(err error) {
	fmt.Fprintln(dm.out, dm.paint("Error: "+err.Error(), "error"))
}

// ShowWelcome prints the banner
func (dm *DisplayManager) ShowWelcome(version string, schemas []string) {
	fmt.Fprintln(dm.out, dm.paint("bitpack "+version+" - bit values and packed records", "success"))
	if len(schemas) > 0 {
		fmt.Fprintf(dm.out, "%s %v\n", dm.paint("Schemas:", "info"), schemas)
	}
	fmt.Fprintln(dm.out, "Type ':help' for commands, ':exit' to leave. End a line with \\ to continue it.")
	fmt.Fprintln(dm.out)
}

// ShowGoodbye prints the farewell line
func (dm *DisplayManager) ShowGoodbye() {
	fmt.Fprintln(dm.out, "Goodbye!")
}
