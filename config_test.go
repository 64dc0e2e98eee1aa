package main

import (
	"os"
	"path/filepath"
	"testing"

	"bitpack/bitfield"
	"bitpack/errors"
	"bitpack/logging"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ObjectID", cfg.DefaultSchema)
	assert.Equal(t, "json", cfg.DefaultFormat)

	require.Len(t, cfg.Schemas, 1)
	created, ok := cfg.Schemas[0].ComputedField("created_at")
	require.True(t, ok)
	assert.Equal(t, "return timestamp + 1420070400000", created.Get)
	assert.Equal(t, "timestamp = value - 1420070400000", created.Set)

	defs, err := cfg.Definitions()
	require.NoError(t, err)
	schema, err := defs.Schemas[0].Schema()
	require.NoError(t, err)
	assert.Equal(t, 64, schema.TotalWidth())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "bits> ", cfg.REPL.Prompt)
}

func TestSaveAndLoadConfig(t *testing.T) {
	for _, name := range []string{"bitpack.yaml", "bitpack.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.REPL.Prompt = "> "
			cfg.Logging.Level = "debug"
			require.NoError(t, SaveConfig(cfg, path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			if diff := cmp.Diff(cfg, loaded); diff != "" {
				t.Errorf("config changed in a save/load round trip (-saved +loaded):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bitpack.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
repl:
  prompt: "$ "
default_format: yaml
schemas:
  - name: Flags
    fields:
      - {name: ready, width: 1}
      - {name: mode, width: 3}
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "$ ", cfg.REPL.Prompt)
	assert.Equal(t, 1000, cfg.REPL.HistorySize)
	assert.Equal(t, "yaml", cfg.DefaultFormat)
	require.Len(t, cfg.Schemas, 1)
	assert.Equal(t, "Flags", cfg.Schemas[0].Name)
	assert.Empty(t, cfg.DefaultSchema)
}

func TestLoadConfigDefaultSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"own schemas only", "schemas:\n  - {name: Small, fields: [{name: a, width: 3}, {name: b, width: 2}]}\n", ""},
		{"own schemas and default", "default_schema: Small\nschemas:\n  - {name: Small, fields: [{name: a, width: 3}]}\n", "Small"},
		{"no schemas section", "repl:\n  prompt: \"> \"\n", "ObjectID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bitpack.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.DefaultSchema)

			interp, err := newInterpreter(cfg, logging.NewNopLogger(), "")
			require.NoError(t, err)
			defer interp.Close()
			if tt.want != "" {
				assert.Equal(t, tt.want, interp.Schema().Name())
			}
		})
	}
}

func TestLoadConfigRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, errors.ErrParse)
}

func TestDefinitionsFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"schemas": [{"name": "Pair", "fields": [{"name": "hi", "width": 4}, {"name": "lo", "width": 4}]}]}`), 0644))

	cfg := DefaultConfig()
	cfg.SchemaFiles = []string{path}
	defs, err := cfg.Definitions()
	require.NoError(t, err)
	_, ok := defs.Find("Pair")
	assert.True(t, ok)
	assert.Len(t, defs.Schemas, 2)

	cfg.Schemas = append(cfg.Schemas, bitfield.SchemaDef{Name: "Pair", Fields: []bitfield.FieldDef{{Name: "x", Width: 1}}})
	_, err = cfg.Definitions()
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	cfg = DefaultConfig()
	cfg.Schemas = []bitfield.SchemaDef{{Name: "Bad", Fields: []bitfield.FieldDef{{Name: "x", Width: 0}}}}
	_, err = cfg.Definitions()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "warning"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarning, logger.GetLevel())

	cfg.Logging.File = filepath.Join(t.TempDir(), "bitpack.log")
	logger, err = cfg.NewLogger()
	require.NoError(t, err)
	logger.Warn("written")
	require.NoError(t, logger.Close())
	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[WARNING] written")

	first := filepath.Join(t.TempDir(), "a.log")
	second := filepath.Join(t.TempDir(), "b.log")
	cfg.Logging.File = first + ", " + second
	logger, err = cfg.NewLogger()
	require.NoError(t, err)
	logger.Error("both")
	require.NoError(t, logger.Close())
	for _, path := range []string{first, second} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[ERROR] both")
	}

	cfg.Logging.File = first + "," + filepath.Join(t.TempDir(), "missing", "c.log")
	_, err = cfg.NewLogger()
	assert.Equal(t, errors.KindSystem, errors.KindOf(err))

	cfg.Logging.File = filepath.Join(t.TempDir(), "fallback.log")
	cfg.Logging.Level = "loud"
	logger, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelInfo, logger.GetLevel())
	require.NoError(t, logger.Close())
	data, err = os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[WARNING] falling back to info level")
	assert.Contains(t, string(data), "error_code=LOG_LEVEL_FALLBACK")
	assert.Contains(t, string(data), "level=loud")

	cfg.Logging.File = ""
	cfg.Logging.Format = "xml"
	_, err = cfg.NewLogger()
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}
