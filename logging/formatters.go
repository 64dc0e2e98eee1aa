package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// JSONFormatter formats log entries as JSON, one object per line
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Component != "" {
		output["component"] = entry.Component
	}

	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	// IncludeTimestamp controls whether to include the timestamp
	IncludeTimestamp bool
	// IncludeLevel controls whether to include the log level
	IncludeLevel bool
	// ColorOutput controls whether to use ANSI color codes
	ColorOutput bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeLevel:     true,
	}
}

// NewConsoleFormatter creates a colored text formatter for terminals
func NewConsoleFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeLevel:     true,
		ColorOutput:      true,
	}
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string) (Formatter, bool) {
	switch name {
	case "json":
		return NewJSONFormatter(), true
	case "text":
		return NewTextFormatter(), true
	case "console":
		return NewConsoleFormatter(), true
	default:
		return nil, false
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	if f.IncludeLevel {
		levelStr := entry.Level.String()
		if f.ColorOutput {
			levelStr = f.colorizeLevel(levelStr, entry.Level)
		}
		fmt.Fprintf(&b, "[%s] ", levelStr)
	}

	if entry.Component != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Component)
	}

	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		b.WriteString(" " + f.formatFields(entry.Fields))
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	if f.ColorOutput {
		return "console"
	}
	return "text"
}

// formatFields formats the fields map as a string, keys sorted
func (f *TextFormatter) formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, fields[key])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// colorizeLevel adds ANSI color codes to the level string
func (f *TextFormatter) colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level) // Cyan
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level) // Green
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level) // Yellow
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level) // Red
	default:
		return level
	}
}
