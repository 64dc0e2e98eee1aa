package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"bitpack/errors"
)

// ConsoleWriter writes log entries to a terminal stream
type ConsoleWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewConsoleWriterWithFile creates a new console writer with a specific stream
func NewConsoleWriterWithFile(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		writer: w,
	}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush syncs the stream when it is a file
func (w *ConsoleWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Sync()
	}
	return nil
}

// Close does nothing; the stream belongs to the caller
func (w *ConsoleWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter appends log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer
func NewFileWriter(filePath string) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.WrapError(err, "LOG_FILE_OPEN_FAILED",
			fmt.Sprintf("failed to open log file %s", filePath))
	}

	return &FileWriter{
		file:     file,
		filePath: filePath,
	}, nil
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// MultiWriter writes log entries to multiple writers
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{
		writers: writers,
	}
}

func (w *MultiWriter) each(op string, fn func(Writer) error) error {
	var failed []string
	for _, writer := range w.writers {
		if err := fn(writer); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", writer.GetName(), err))
		}
	}
	if len(failed) > 0 {
		return errors.NewSystemError("LOG_WRITE_FAILED",
			fmt.Sprintf("multi writer %s errors: %s", op, strings.Join(failed, "; ")))
	}
	return nil
}

// Write writes data to all writers
func (w *MultiWriter) Write(data []byte) error {
	return w.each("write", func(wr Writer) error { return wr.Write(data) })
}

// Flush flushes all writers
func (w *MultiWriter) Flush() error {
	return w.each("flush", Writer.Flush)
}

// Close closes all writers
func (w *MultiWriter) Close() error {
	return w.each("close", Writer.Close)
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter is a writer that discards all log entries
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

// Write discards the data
func (w *NullWriter) Write(data []byte) error {
	return nil
}

// Flush does nothing
func (w *NullWriter) Flush() error {
	return nil
}

// Close does nothing
func (w *NullWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *NullWriter) GetName() string {
	return "null"
}
