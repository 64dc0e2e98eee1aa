package serialization

import (
	"fmt"
	"sort"
	"strings"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"
)

// RecordSerializer defines the interface for serializing and deserializing records
type RecordSerializer interface {
	// Serialize converts a record to bytes
	Serialize(rec *bitfield.Record) ([]byte, error)

	// Deserialize converts bytes back to a record laid out by schema
	Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error)

	// GetName returns the name of the serializer
	GetName() string

	// GetVersion returns the version of the serializer
	GetVersion() string
}

// SerializationError represents an error that occurred during serialization
type SerializationError struct {
	Operation string
	Message   string
	Format    string
	Context   map[string]interface{}
	Cause     error
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("[%s serialization error] %s", e.Format, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Context[k])
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	return msg
}

// Unwrap returns the underlying error, so errors.Is sees its kind
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new serialization error
func NewSerializationError(format, operation, message string) *SerializationError {
	return &SerializationError{
		Format:    format,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SerializationError) WithContext(key string, value interface{}) *SerializationError {
	e.Context[key] = value
	return e
}

// Wrap records the underlying error
func (e *SerializationError) Wrap(err error) *SerializationError {
	e.Cause = err
	return e
}

func serializeError(format string, err error) *SerializationError {
	return NewSerializationError(format, "serialize", err.Error()).Wrap(err)
}

func deserializeError(format string, err error) *SerializationError {
	return NewSerializationError(format, "deserialize", err.Error()).Wrap(err)
}

// malformed reports input that is not valid for the format at all.
func malformed(format, message string) *SerializationError {
	return deserializeError(format, errors.NewParseError("MALFORMED_INPUT", message))
}

// recordFromText builds a record from literals keyed by field name.
func recordFromText(format string, schema *bitfield.Schema, values map[string]string) (*bitfield.Record, error) {
	parsed := make(map[string]*bits.Value, len(values))
	for name, text := range values {
		v, err := bits.Parse(text)
		if err != nil {
			return nil, deserializeError(format, err).WithContext("field", name)
		}
		parsed[name] = v
	}

	rec, err := schema.Create(parsed)
	if err != nil {
		return nil, deserializeError(format, err)
	}
	return rec, nil
}

// SerializerRegistry manages multiple serializers
type SerializerRegistry struct {
	serializers       map[string]RecordSerializer
	defaultSerializer string
}

// NewSerializerRegistry creates a new serializer registry
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		serializers:       make(map[string]RecordSerializer),
		defaultSerializer: "json",
	}
}

// RegisterSerializer registers a serializer
func (sr *SerializerRegistry) RegisterSerializer(serializer RecordSerializer) error {
	name := serializer.GetName()
	if _, exists := sr.serializers[name]; exists {
		return errors.NewInvalidValueError("SERIALIZER_EXISTS",
			fmt.Sprintf("serializer '%s' is already registered", name))
	}

	sr.serializers[name] = serializer
	return nil
}

// GetSerializer returns a serializer by name
func (sr *SerializerRegistry) GetSerializer(name string) (RecordSerializer, error) {
	serializer, exists := sr.serializers[name]
	if !exists {
		return nil, errors.NewInvalidValueError("UNKNOWN_FORMAT",
			fmt.Sprintf("serializer '%s' not found", name)).WithContext("formats", strings.Join(sr.ListSerializers(), ","))
	}
	return serializer, nil
}

// GetDefaultSerializer returns the default serializer
func (sr *SerializerRegistry) GetDefaultSerializer() (RecordSerializer, error) {
	if sr.defaultSerializer == "" {
		return nil, errors.NewInvalidValueError("NO_DEFAULT_FORMAT", "no default serializer configured")
	}
	return sr.GetSerializer(sr.defaultSerializer)
}

// SetDefaultSerializer sets the default serializer
func (sr *SerializerRegistry) SetDefaultSerializer(name string) error {
	if _, err := sr.GetSerializer(name); err != nil {
		return err
	}

	sr.defaultSerializer = name
	return nil
}

// ListSerializers returns the sorted names of all registered serializers
func (sr *SerializerRegistry) ListSerializers() []string {
	names := make([]string, 0, len(sr.serializers))
	for name := range sr.serializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConvertFormat converts serialized record data from one format to another
func (sr *SerializerRegistry) ConvertFormat(schema *bitfield.Schema, data []byte, fromFormat, toFormat string) ([]byte, error) {
	fromSerializer, err := sr.GetSerializer(fromFormat)
	if err != nil {
		return nil, err
	}
	toSerializer, err := sr.GetSerializer(toFormat)
	if err != nil {
		return nil, err
	}

	rec, err := fromSerializer.Deserialize(schema, data)
	if err != nil {
		return nil, err
	}
	return toSerializer.Serialize(rec)
}
