package serialization

// NewDefaultSerializerRegistry creates a serializer registry with all default serializers
func NewDefaultSerializerRegistry() *SerializerRegistry {
	registry := NewSerializerRegistry()

	for _, s := range []RecordSerializer{
		NewJSONSerializer(),
		NewYAMLSerializer(),
		NewBinarySerializer(),
		NewMessagePackSerializer(),
		NewFunbitSerializer(),
		NewBitlistSerializer(),
	} {
		if err := registry.RegisterSerializer(s); err != nil {
			// names above are distinct
			panic(err)
		}
	}

	_ = registry.SetDefaultSerializer("json")
	return registry
}
