package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bitpack/bitfield"
)

// JSONSerializer writes a record as an object of decimal strings in field
// order. Strings keep values wider than 53 bits exact for JSON readers.
type JSONSerializer struct {
	version string
}

// NewJSONSerializer creates a new JSON serializer
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{
		version: "1.0.0",
	}
}

// Serialize converts a record to JSON bytes
func (js *JSONSerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("json", "serialize", "record is nil")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nv := range rec.Values() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nv.Name)
		if err != nil {
			return nil, serializeError("json", err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%q", nv.Value.Text(10))
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// SerializePretty serializes a record to indented JSON
func (js *JSONSerializer) SerializePretty(rec *bitfield.Record) ([]byte, error) {
	compact, err := js.Serialize(rec)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, serializeError("json", err)
	}
	return out.Bytes(), nil
}

// Deserialize converts JSON bytes back to a record. Values may be strings
// holding any integer literal, or plain JSON numbers.
func (js *JSONSerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, malformed("json", "data is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed("json", err.Error())
	}

	values := make(map[string]string, len(raw))
	for name, v := range raw {
		switch tv := v.(type) {
		case string:
			values[name] = tv
		case json.Number:
			values[name] = tv.String()
		default:
			return nil, malformed("json", fmt.Sprintf("field %s: expected a string or number, got %T", name, v))
		}
	}

	return recordFromText("json", schema, values)
}

// GetName returns the name of the serializer
func (js *JSONSerializer) GetName() string {
	return "json"
}

// GetVersion returns the version of the serializer
func (js *JSONSerializer) GetVersion() string {
	return js.version
}
