package runtime

import (
	"fmt"
	"sort"

	"bitpack/bitfield"
	"bitpack/errors"
)

// ScriptRuntime defines the interface for script runtimes that work on records
type ScriptRuntime interface {
	// GetName returns the name of the runtime
	GetName() string

	// Eval runs code against rec and returns its display result
	Eval(rec *bitfield.Record, code string) (string, error)

	// Bind makes rec the record Exec works on
	Bind(rec *bitfield.Record) error

	// Exec runs code against the bound record
	Exec(code string) (string, error)

	// Close releases resources used by the runtime
	Close() error
}

// RuntimeManager manages the registered script runtimes
type RuntimeManager struct {
	runtimes map[string]ScriptRuntime
}

// NewRuntimeManager creates a new runtime manager
func NewRuntimeManager() *RuntimeManager {
	return &RuntimeManager{
		runtimes: make(map[string]ScriptRuntime),
	}
}

// RegisterRuntime registers a script runtime
func (rm *RuntimeManager) RegisterRuntime(runtime ScriptRuntime) error {
	name := runtime.GetName()
	if _, exists := rm.runtimes[name]; exists {
		return errors.NewInvalidValueError("RUNTIME_EXISTS",
			fmt.Sprintf("runtime '%s' is already registered", name))
	}
	rm.runtimes[name] = runtime
	return nil
}

// GetRuntime returns a runtime by name
func (rm *RuntimeManager) GetRuntime(name string) (ScriptRuntime, error) {
	runtime, exists := rm.runtimes[name]
	if !exists {
		return nil, errors.NewInvalidValueError("RUNTIME_NOT_FOUND",
			fmt.Sprintf("runtime '%s' is not registered", name))
	}
	return runtime, nil
}

// BindAll makes rec the record every registered runtime's Exec works on
func (rm *RuntimeManager) BindAll(rec *bitfield.Record) error {
	for _, name := range rm.ListRuntimes() {
		if err := rm.runtimes[name].Bind(rec); err != nil {
			return err
		}
	}
	return nil
}

// CloseAll closes all registered runtimes
func (rm *RuntimeManager) CloseAll() error {
	var lastErr error
	for name, runtime := range rm.runtimes {
		if err := runtime.Close(); err != nil {
			lastErr = errors.WrapError(err, "RUNTIME_CLOSE_FAILED",
				fmt.Sprintf("failed to close runtime '%s'", name))
		}
	}
	return lastErr
}

// ListRuntimes returns the sorted names of all registered runtimes
func (rm *RuntimeManager) ListRuntimes() []string {
	names := make([]string, 0, len(rm.runtimes))
	for name := range rm.runtimes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
