package serialization

import (
	"fmt"

	"bitpack/bitfield"

	"gopkg.in/yaml.v3"
)

// YAMLSerializer writes a record as a YAML mapping in field order.
type YAMLSerializer struct {
	version string
}

// NewYAMLSerializer creates a new YAML serializer
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{
		version: "1.0.0",
	}
}

// Serialize converts a record to YAML bytes
func (ys *YAMLSerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("yaml", "serialize", "record is nil")
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, nv := range rec.Values() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: nv.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: nv.Value.Text(10)},
		)
	}

	data, err := yaml.Marshal(node)
	if err != nil {
		return nil, serializeError("yaml", err)
	}
	return data, nil
}

// Deserialize converts YAML bytes back to a record
func (ys *YAMLSerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("yaml", err.Error())
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, malformed("yaml", "expected a mapping of field names to values")
	}

	mapping := doc.Content[0]
	values := make(map[string]string, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, val := mapping.Content[i], mapping.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, malformed("yaml", fmt.Sprintf("field %s: expected a scalar value", key.Value))
		}
		values[key.Value] = val.Value
	}

	return recordFromText("yaml", schema, values)
}

// GetName returns the name of the serializer
func (ys *YAMLSerializer) GetName() string {
	return "yaml"
}

// GetVersion returns the version of the serializer
func (ys *YAMLSerializer) GetVersion() string {
	return ys.version
}
