package main

import (
	"fmt"
	"io"
	"os"

	"bitpack/errors"
	"bitpack/logging"
	"bitpack/repl"
	"bitpack/serialization"
)

// newInterpreter builds an interpreter from the configuration and selects
// the initial schema, if any.
func newInterpreter(cfg *Config, logger logging.Logger, schema string) (*repl.Interpreter, error) {
	defs, err := cfg.Definitions()
	if err != nil {
		return nil, err
	}

	serializers := serialization.NewDefaultSerializerRegistry()
	if cfg.DefaultFormat != "" {
		if err := serializers.SetDefaultSerializer(cfg.DefaultFormat); err != nil {
			return nil, err
		}
	}

	interp, err := repl.NewInterpreter(repl.InterpreterConfig{
		Definitions: defs,
		Serializers: serializers,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	if schema == "" {
		schema = cfg.DefaultSchema
	}
	if schema != "" {
		if err := interp.SelectSchema(schema); err != nil {
			_ = interp.Close()
			return nil, err
		}
	}
	return interp, nil
}

// BatchMode runs every command of a file, writing results to out. Failed
// commands are reported and the run continues; the returned error counts them.
func BatchMode(filePath string, cfg *Config, logger logging.Logger, schema string, out io.Writer) error {
	f, err := os.Open(expandHome(filePath))
	if err != nil {
		return errors.WrapError(err, "BATCH_OPEN_FAILED", fmt.Sprintf("failed to open %s", filePath))
	}
	defer f.Close()

	logger = logger.WithFields(logging.StringField("file", filePath))
	interp, err := newInterpreter(cfg, logger, schema)
	if err != nil {
		return err
	}
	defer func() {
		_ = interp.Close()
	}()

	r, err := repl.NewREPLWithConfig(repl.REPLConfig{
		Interpreter: interp,
		Out:         out,
	})
	if err != nil {
		return err
	}

	logger.Info("batch started")
	if err := r.RunPiped(f); err != nil {
		return err
	}
	if n := r.Failures(); n > 0 {
		return errors.NewInvalidValueError("BATCH_FAILED",
			fmt.Sprintf("%d command(s) failed in %s", n, filePath)).WithContext("failures", n)
	}
	return nil
}
