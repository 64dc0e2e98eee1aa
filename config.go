package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitpack/bitfield"
	"bitpack/errors"
	"bitpack/logging"
	"bitpack/snowflake"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	REPL    REPLConfig    `json:"repl" yaml:"repl"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Schemas are defined inline; SchemaFiles name extra definition files.
	Schemas       []bitfield.SchemaDef `json:"schemas" yaml:"schemas"`
	SchemaFiles   []string             `json:"schema_files,omitempty" yaml:"schema_files,omitempty"`
	DefaultSchema string               `json:"default_schema,omitempty" yaml:"default_schema,omitempty"`
	DefaultFormat string               `json:"default_format" yaml:"default_format"`
}

// REPLConfig contains REPL configuration
type REPLConfig struct {
	Prompt       string `json:"prompt" yaml:"prompt"`
	HistorySize  int    `json:"history_size" yaml:"history_size"`
	HistoryFile  string `json:"history_file" yaml:"history_file"`
	ShowWelcome  bool   `json:"show_welcome" yaml:"show_welcome"`
	EnableColors bool   `json:"enable_colors" yaml:"enable_colors"`
}

// LoggingConfig contains logging configuration. File is a comma separated
// list of destinations: "stderr" is the terminal, anything else a file path.
// An empty File discards log output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// snowflakeSchema is the snowflake layout with its derived creation time.
func snowflakeSchema() bitfield.SchemaDef {
	def := bitfield.DefinitionOf(snowflake.Layout)
	def.Computed = []bitfield.ComputedDef{{
		Name: "created_at",
		Get:  fmt.Sprintf("return %s + %d", snowflake.FieldTimestamp, snowflake.Epoch),
		Set:  fmt.Sprintf("%s = value - %d", snowflake.FieldTimestamp, snowflake.Epoch),
	}}
	return def
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:       "bits> ",
			HistorySize:  1000,
			HistoryFile:  "~/.bitpack_history",
			ShowWelcome:  true,
			EnableColors: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Schemas:       []bitfield.SchemaDef{snowflakeSchema()},
		DefaultSchema: snowflake.Layout.Name(),
		DefaultFormat: "json",
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. The default schema is kept only while the loaded schemas define it.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, errors.WrapError(err, "CONFIG_READ_FAILED", fmt.Sprintf("failed to read config file %s", path))
	}

	// a file that replaces schemas without naming a default must not
	// inherit one it no longer defines
	fallback := config.DefaultSchema
	config.DefaultSchema = ""

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.NewParseError("BAD_CONFIG",
				fmt.Sprintf("failed to parse JSON config: %v", err)).Wrap(err)
		}
	default:
		// .yaml, .yml and anything else
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.NewParseError("BAD_CONFIG",
				fmt.Sprintf("failed to parse YAML config: %v", err)).Wrap(err)
		}
	}

	if config.DefaultSchema == "" && definesSchema(config.Schemas, fallback) {
		config.DefaultSchema = fallback
	}
	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	path = expandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapError(err, "CONFIG_DIR_FAILED", "failed to create config directory")
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return errors.WrapError(err, "CONFIG_ENCODE_FAILED", "failed to encode config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapError(err, "CONFIG_WRITE_FAILED", fmt.Sprintf("failed to write config file %s", path))
	}
	return nil
}

func definesSchema(schemas []bitfield.SchemaDef, name string) bool {
	for _, def := range schemas {
		if def.Name == name {
			return true
		}
	}
	return false
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// Definitions collects the inline schemas and those of every schema file.
// Schema names must be unique across all sources.
func (c *Config) Definitions() (*bitfield.Definitions, error) {
	defs := &bitfield.Definitions{}
	seen := make(map[string]bool)

	add := func(source string, schemas []bitfield.SchemaDef) error {
		for _, def := range schemas {
			if seen[def.Name] {
				return errors.NewInvalidValueError("DUPLICATE_SCHEMA",
					fmt.Sprintf("schema %s is defined twice", def.Name)).WithContext("source", source)
			}
			if _, err := def.Schema(); err != nil {
				return err
			}
			seen[def.Name] = true
			defs.Schemas = append(defs.Schemas, def)
		}
		return nil
	}

	if err := add("config", c.Schemas); err != nil {
		return nil, err
	}
	for _, path := range c.SchemaFiles {
		loaded, err := bitfield.LoadDefinitions(expandHome(path))
		if err != nil {
			return nil, err
		}
		if err := add(path, loaded.Schemas); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// NewLogger builds the logger described by the logging section
func (c *Config) NewLogger() (*logging.DefaultLogger, error) {
	level, levelErr := logging.ParseLevel(c.Logging.Level)
	cfg := logging.LoggerConfig{Level: level}

	formatter, ok := logging.NewFormatter(c.Logging.Format)
	if !ok {
		return nil, errors.NewInvalidValueError("BAD_LOG_FORMAT",
			fmt.Sprintf("unknown log format %q", c.Logging.Format))
	}
	cfg.Formatters = []logging.Formatter{formatter}

	var writers []logging.Writer
	for _, dest := range strings.Split(c.Logging.File, ",") {
		switch dest = strings.TrimSpace(dest); dest {
		case "":
		case "stderr":
			writers = append(writers, logging.NewConsoleWriterWithFile(os.Stderr))
		default:
			fw, err := logging.NewFileWriter(expandHome(dest))
			if err != nil {
				for _, w := range writers {
					_ = w.Close()
				}
				return nil, err
			}
			writers = append(writers, fw)
		}
	}

	switch len(writers) {
	case 0:
		cfg.Writers = []logging.Writer{logging.NewNullWriter()}
	case 1:
		cfg.Writers = writers
	default:
		cfg.Writers = []logging.Writer{logging.NewMultiWriter(writers...)}
	}

	logger := logging.NewDefaultLoggerWithConfig(cfg)
	if levelErr != nil {
		logger.ErrorBit(errors.NewDefaultErrorHandler().Wrap(levelErr, "LOG_LEVEL_FALLBACK",
			"falling back to info level",
			errors.WithSeverityOption(errors.SeverityWarning),
			errors.WithContextOption("level", c.Logging.Level)))
	}
	return logger, nil
}
