package serialization

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"bitpack/bitfield"
	"bitpack/bits"
)

// MessagePackSerializer writes a record as a MessagePack map from field
// name to value. Fields up to 64 bits use the integer formats; wider fields
// are written as bin with the big-endian magnitude.
type MessagePackSerializer struct {
	version string
}

// NewMessagePackSerializer creates a new MessagePack serializer
func NewMessagePackSerializer() *MessagePackSerializer {
	return &MessagePackSerializer{
		version: "1.0.0",
	}
}

// Serialize converts a record to MessagePack bytes
func (mps *MessagePackSerializer) Serialize(rec *bitfield.Record) ([]byte, error) {
	if rec == nil {
		return nil, NewSerializationError("msgpack", "serialize", "record is nil")
	}

	var buf bytes.Buffer
	values := rec.Values()
	mps.encodeMapHeader(&buf, len(values))
	for _, nv := range values {
		mps.encodeString(&buf, nv.Name)
		if nv.Value.IsUint64() {
			mps.encodeUint(&buf, nv.Value.Uint64())
		} else {
			mps.encodeBin(&buf, nv.Value.Bytes(bits.BigEndian))
		}
	}
	return buf.Bytes(), nil
}

// Deserialize converts MessagePack bytes back to a record
func (mps *MessagePackSerializer) Deserialize(schema *bitfield.Schema, data []byte) (*bitfield.Record, error) {
	if len(data) == 0 {
		return nil, malformed("msgpack", "data is empty")
	}

	buf := bytes.NewBuffer(data)
	length, err := mps.decodeMapHeader(buf)
	if err != nil {
		return nil, malformed("msgpack", err.Error())
	}

	values := make(map[string]*bits.Value, length)
	for i := 0; i < length; i++ {
		key, err := mps.decodeValue(buf)
		if err != nil {
			return nil, malformed("msgpack", err.Error())
		}
		name, ok := key.(string)
		if !ok {
			return nil, malformed("msgpack", fmt.Sprintf("map key must be string, got %T", key))
		}

		raw, err := mps.decodeValue(buf)
		if err != nil {
			return nil, malformed("msgpack", err.Error())
		}
		switch v := raw.(type) {
		case uint64:
			values[name] = bits.FromUint64(v)
		case []byte:
			values[name] = bits.FromBytes(v, bits.BigEndian)
		default:
			return nil, malformed("msgpack", fmt.Sprintf("field %s: expected an unsigned integer or bin, got %T", name, raw))
		}
	}
	if buf.Len() != 0 {
		return nil, malformed("msgpack", fmt.Sprintf("%d trailing bytes", buf.Len()))
	}

	rec, err := schema.Create(values)
	if err != nil {
		return nil, deserializeError("msgpack", err)
	}
	return rec, nil
}

// GetName returns the name of the serializer
func (mps *MessagePackSerializer) GetName() string {
	return "msgpack"
}

// GetVersion returns the version of the serializer
func (mps *MessagePackSerializer) GetVersion() string {
	return mps.version
}

// encodeUint encodes an unsigned integer value
func (mps *MessagePackSerializer) encodeUint(buf *bytes.Buffer, value uint64) {
	switch {
	case value <= 127:
		buf.WriteByte(byte(value))
	case value <= 255:
		buf.WriteByte(0xCC)
		buf.WriteByte(byte(value))
	case value <= 65535:
		buf.WriteByte(0xCD)
		_ = binary.Write(buf, binary.BigEndian, uint16(value))
	case value <= 4294967295:
		buf.WriteByte(0xCE)
		_ = binary.Write(buf, binary.BigEndian, uint32(value))
	default:
		buf.WriteByte(0xCF)
		_ = binary.Write(buf, binary.BigEndian, value)
	}
}

// encodeString encodes a string value
func (mps *MessagePackSerializer) encodeString(buf *bytes.Buffer, value string) {
	length := len(value)
	switch {
	case length < 32:
		buf.WriteByte(0xA0 | byte(length))
	case length <= 255:
		buf.WriteByte(0xD9)
		buf.WriteByte(byte(length))
	case length <= 65535:
		buf.WriteByte(0xDA)
		_ = binary.Write(buf, binary.BigEndian, uint16(length))
	default:
		buf.WriteByte(0xDB)
		_ = binary.Write(buf, binary.BigEndian, uint32(length))
	}
	buf.WriteString(value)
}

// encodeBin encodes a byte slice
func (mps *MessagePackSerializer) encodeBin(buf *bytes.Buffer, value []byte) {
	length := len(value)
	switch {
	case length <= 255:
		buf.WriteByte(0xC4)
		buf.WriteByte(byte(length))
	case length <= 65535:
		buf.WriteByte(0xC5)
		_ = binary.Write(buf, binary.BigEndian, uint16(length))
	default:
		buf.WriteByte(0xC6)
		_ = binary.Write(buf, binary.BigEndian, uint32(length))
	}
	buf.Write(value)
}

// encodeMapHeader writes the header of a map with length entries
func (mps *MessagePackSerializer) encodeMapHeader(buf *bytes.Buffer, length int) {
	switch {
	case length < 16:
		buf.WriteByte(0x80 | byte(length))
	case length <= 65535:
		buf.WriteByte(0xDE)
		_ = binary.Write(buf, binary.BigEndian, uint16(length))
	default:
		buf.WriteByte(0xDF)
		_ = binary.Write(buf, binary.BigEndian, uint32(length))
	}
}

func (mps *MessagePackSerializer) decodeMapHeader(buf *bytes.Buffer) (int, error) {
	b, err := buf.ReadByte()
	if err != nil {
		return 0, err
	}

	switch {
	case b >= 0x80 && b <= 0x8F: // fixmap
		return int(b & 0x0F), nil
	case b == 0xDE: // map16
		var length uint16
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return 0, err
		}
		return int(length), nil
	case b == 0xDF: // map32
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return 0, err
		}
		return int(length), nil
	default:
		return 0, fmt.Errorf("expected a map, got format 0x%02X", b)
	}
}

// decodeValue decodes the scalar formats a record map can hold
func (mps *MessagePackSerializer) decodeValue(buf *bytes.Buffer) (interface{}, error) {
	if buf.Len() == 0 {
		return nil, fmt.Errorf("unexpected end of data")
	}

	b, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	switch {
	case b <= 0x7F: // positive fixint
		return uint64(b), nil
	case b == 0xCC: // uint8
		var val uint8
		if err := binary.Read(buf, binary.BigEndian, &val); err != nil {
			return nil, err
		}
		return uint64(val), nil
	case b == 0xCD: // uint16
		var val uint16
		if err := binary.Read(buf, binary.BigEndian, &val); err != nil {
			return nil, err
		}
		return uint64(val), nil
	case b == 0xCE: // uint32
		var val uint32
		if err := binary.Read(buf, binary.BigEndian, &val); err != nil {
			return nil, err
		}
		return uint64(val), nil
	case b == 0xCF: // uint64
		var val uint64
		if err := binary.Read(buf, binary.BigEndian, &val); err != nil {
			return nil, err
		}
		return val, nil
	case b >= 0xA0 && b <= 0xBF: // fixstr
		return mps.decodeString(buf, int(b&0x1F))
	case b == 0xD9: // str8
		length, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return mps.decodeString(buf, int(length))
	case b == 0xDA: // str16
		var length uint16
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		return mps.decodeString(buf, int(length))
	case b == 0xDB: // str32
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		return mps.decodeString(buf, int(length))
	case b == 0xC4: // bin8
		length, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		return mps.decodeBytes(buf, int(length))
	case b == 0xC5: // bin16
		var length uint16
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		return mps.decodeBytes(buf, int(length))
	case b == 0xC6: // bin32
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		return mps.decodeBytes(buf, int(length))
	default:
		return nil, fmt.Errorf("unsupported MessagePack format: 0x%02X", b)
	}
}

// decodeString decodes a string value
func (mps *MessagePackSerializer) decodeString(buf *bytes.Buffer, length int) (string, error) {
	data, err := mps.decodeBytes(buf, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (mps *MessagePackSerializer) decodeBytes(buf *bytes.Buffer, length int) ([]byte, error) {
	if buf.Len() < length {
		return nil, fmt.Errorf("unexpected end of data")
	}
	data := make([]byte, length)
	copy(data, buf.Next(length))
	return data, nil
}
