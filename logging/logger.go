package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"bitpack/bits"
	"bitpack/errors"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string to a level
func ParseLevel(levelStr string) (LogLevel, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewParseError("BAD_LOG_LEVEL",
			fmt.Sprintf("unknown log level %q", levelStr))
	}
}

// LogField is one key-value pair attached to an entry
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry is what formatters render
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)

	// ErrorBit logs err with its kind, code and context as fields
	ErrorBit(err error, fields ...LogField)

	// WithFields returns a logger that adds fields to every entry
	WithFields(fields ...LogField) Logger

	// WithComponent returns a logger that tags entries with component
	WithComponent(component string) Logger

	GetLevel() LogLevel
}

// Formatter renders an entry
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
	GetName() string
}

// Writer is a destination for formatted entries
type Writer interface {
	Write(data []byte) error
	Flush() error
	Close() error
	GetName() string
}

// DefaultLogger is the default implementation of Logger
type DefaultLogger struct {
	level      LogLevel
	component  string
	fields     map[string]interface{}
	formatters []Formatter
	writers    []Writer
}

// LoggerConfig contains configuration for the logger
type LoggerConfig struct {
	Level      LogLevel
	Formatters []Formatter
	Writers    []Writer
}

// NewDefaultLoggerWithConfig creates a logger. Without formatters it writes
// JSON; without writers it writes to stderr.
func NewDefaultLoggerWithConfig(config LoggerConfig) *DefaultLogger {
	logger := &DefaultLogger{
		level:      config.Level,
		fields:     map[string]interface{}{},
		formatters: config.Formatters,
		writers:    config.Writers,
	}
	if len(logger.formatters) == 0 {
		logger.formatters = []Formatter{NewJSONFormatter()}
	}
	if len(logger.writers) == 0 {
		logger.writers = []Writer{NewConsoleWriterWithFile(os.Stderr)}
	}
	return logger
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{Level: LevelError + 1, Writers: []Writer{NewNullWriter()}})
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...LogField) {
	l.log(LevelDebug, msg, fields)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...LogField) {
	l.log(LevelInfo, msg, fields)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...LogField) {
	l.log(LevelWarning, msg, fields)
}

func (l *DefaultLogger) Error(msg string, fields ...LogField) {
	l.log(LevelError, msg, fields)
}

// ErrorBit logs a BitError under its own message with error_kind,
// error_code and its context as fields. Warning-severity errors are logged
// at warning level. Other errors are logged as text.
func (l *DefaultLogger) ErrorBit(err error, fields ...LogField) {
	be, ok := errors.AsBitError(err)
	if !ok {
		l.log(LevelError, err.Error(), fields)
		return
	}

	all := make([]LogField, 0, len(fields)+len(be.Context)+2)
	all = append(all, fields...)
	all = append(all, StringField("error_code", be.Code), StringField("error_kind", string(be.Kind)))
	for k, v := range be.Context {
		all = append(all, LogField{Key: k, Value: v})
	}
	level := LevelError
	if be.Severity == errors.SeverityWarning {
		level = LevelWarning
	}
	l.log(level, be.Message, all)
}

// WithFields returns a logger that adds fields to every entry
func (l *DefaultLogger) WithFields(fields ...LogField) Logger {
	child := l.clone()
	for _, f := range fields {
		child.fields[f.Key] = f.Value
	}
	return child
}

// WithComponent returns a logger that tags entries with component
func (l *DefaultLogger) WithComponent(component string) Logger {
	child := l.clone()
	child.component = component
	return child
}

// GetLevel returns the minimum level that is written
func (l *DefaultLogger) GetLevel() LogLevel {
	return l.level
}

// Close flushes and closes every writer
func (l *DefaultLogger) Close() error {
	var lastErr error
	for _, w := range l.writers {
		if err := w.Flush(); err != nil {
			lastErr = err
		}
		if err := w.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields []LogField) {
	if level < l.level {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Component: l.component,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	for _, formatter := range l.formatters {
		data, err := formatter.Format(entry)
		if err != nil {
			data = []byte(fmt.Sprintf("unformattable log entry %q: %v\n", msg, err))
		}
		for _, w := range l.writers {
			if err := w.Write(data); err != nil {
				fmt.Fprintf(os.Stderr, "log writer %s: %v\n", w.GetName(), err)
			}
		}
	}
}

// clone shares formatters and writers but not fields
func (l *DefaultLogger) clone() *DefaultLogger {
	child := *l
	child.fields = make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		child.fields[k] = v
	}
	return &child
}

// StringField creates a new string field
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField creates a new int field
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// DurationField renders a duration as text
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}

// BitsField logs a bit value in decimal, which stays exact for any width
func BitsField(key string, value *bits.Value) LogField {
	return LogField{Key: key, Value: value.Text(10)}
}
