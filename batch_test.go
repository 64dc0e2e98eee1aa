package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"bitpack/errors"
	"bitpack/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "commands.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestBatchMode(t *testing.T) {
	path := writeScript(t, `# decode an ID and move it one second forward
unpack 175928847299117063
get created_at
set created_at 1462015106796
get timestamp
encode
`)

	out := &bytes.Buffer{}
	require.NoError(t, BatchMode(path, DefaultConfig(), logging.NewNopLogger(), "", out))
	assert.Equal(t, `ObjectID(timestamp=41944705796, worker_id=1, process_id=0, increment=7)
created_at = 1462015105796  [computed]
ObjectID(timestamp=41944706796, worker_id=1, process_id=0, increment=7)
timestamp = 41944706796  [bits 0:42, width 42]
{"timestamp":"41944706796","worker_id":"1","process_id":"0","increment":"7"}
`, out.String())
}

func TestBatchModeCountsFailures(t *testing.T) {
	path := writeScript(t, "set worker_id 32\nset worker_id 31\nbit 99\n")

	out := &bytes.Buffer{}
	logBuf := &bytes.Buffer{}
	logger := logging.NewDefaultLoggerWithConfig(logging.LoggerConfig{
		Level:      logging.LevelError,
		Formatters: []logging.Formatter{&logging.TextFormatter{IncludeLevel: true}},
		Writers:    []logging.Writer{logging.NewConsoleWriterWithFile(logBuf)},
	})

	err := BatchMode(path, DefaultConfig(), logger, "", out)
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
	assert.Contains(t, err.Error(), "2 command(s) failed")
	assert.Contains(t, out.String(), "worker_id=31")
	assert.Contains(t, logBuf.String(), "command=set")
	assert.Contains(t, logBuf.String(), "command=bit")
	assert.Contains(t, logBuf.String(), "file="+path)
}

func TestBatchModeErrors(t *testing.T) {
	err := BatchMode(filepath.Join(t.TempDir(), "missing.txt"), DefaultConfig(), logging.NewNopLogger(), "", &bytes.Buffer{})
	assert.Equal(t, errors.KindSystem, errors.KindOf(err))

	path := writeScript(t, "show\n")
	err = BatchMode(path, DefaultConfig(), logging.NewNopLogger(), "Nope", &bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	cfg := DefaultConfig()
	cfg.DefaultFormat = "xml"
	err = BatchMode(path, cfg, logging.NewNopLogger(), "", &bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}
