package repl

import (
	"strings"
)

// MultiLineBuffer collects continuation lines. A line ending in a backslash
// is buffered; the next line without one completes the command.
type MultiLineBuffer struct {
	lines []string
}

// NewMultiLineBuffer creates a new buffer
func NewMultiLineBuffer() *MultiLineBuffer {
	return &MultiLineBuffer{}
}

// Feed adds a line. It returns the complete command and true once a line
// without a trailing backslash arrives.
func (b *MultiLineBuffer) Feed(line string) (string, bool) {
	trimmed := strings.TrimSuffix(strings.TrimRight(line, "\r"), "\\")
	if trimmed != strings.TrimRight(line, "\r") {
		b.lines = append(b.lines, trimmed)
		return "", false
	}

	b.lines = append(b.lines, trimmed)
	content := strings.Join(b.lines, "\n")
	b.Clear()
	return content, true
}

// Clear drops the buffered lines
func (b *MultiLineBuffer) Clear() {
	b.lines = nil
}

// IsActive returns true while a command is incomplete
func (b *MultiLineBuffer) IsActive() bool {
	return len(b.lines) > 0
}

// GetLineCount returns the number of buffered lines
func (b *MultiLineBuffer) GetLineCount() int {
	return len(b.lines)
}
