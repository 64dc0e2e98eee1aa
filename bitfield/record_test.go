package bitfield

import (
	"math/big"
	"testing"

	"bitpack/bits"
	"bitpack/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewBuilder("Small").Field("a", 3).Field("b", 2).Build()
	require.NoError(t, err)
	return s
}

func snowflakeSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema("ObjectID",
		FieldSpec{Name: "timestamp", Width: 42},
		FieldSpec{Name: "worker_id", Width: 5},
		FieldSpec{Name: "process_id", Width: 5},
		FieldSpec{Name: "increment", Width: 12},
	)
	require.NoError(t, err)
	return s
}

func TestSchemaLayout(t *testing.T) {
	s := snowflakeSchema(t)

	assert.Equal(t, "ObjectID", s.Name())
	assert.Equal(t, 64, s.TotalWidth())
	assert.Equal(t, []string{"timestamp", "worker_id", "process_id", "increment"}, s.Names())

	for name, want := range map[string]int{"timestamp": 0, "worker_id": 42, "process_id": 47, "increment": 52} {
		off, err := s.Offset(name)
		require.NoError(t, err)
		assert.Equal(t, want, off, name)
	}

	_, err := s.Offset("nope")
	assert.ErrorIs(t, err, errors.ErrUnknownField)

	fields := s.Fields()
	fields[0].Width = 1
	f, ok := s.Field("timestamp")
	require.True(t, ok)
	assert.Equal(t, 42, f.Width)
}

func TestSchemaValidation(t *testing.T) {
	tests := []struct {
		name       string
		fieldSpecs []FieldSpec
	}{
		{"duplicate", []FieldSpec{{"a", 1}, {"a", 2}}},
		{"zero width", []FieldSpec{{"a", 0}}},
		{"negative width", []FieldSpec{{"a", -3}}},
		{"empty name", []FieldSpec{{"", 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema("Bad", tt.fieldSpecs...)
			assert.ErrorIs(t, err, errors.ErrInvalidValue)
		})
	}

	assert.Panics(t, func() { MustSchema("Bad", FieldSpec{"a", 0}) })
}

func TestCreate(t *testing.T) {
	s := smallSchema(t)

	rec, err := s.CreateUint64(map[string]uint64{"a": 5, "b": 2})
	require.NoError(t, err)
	assert.True(t, rec.Packed().Equal(bits.FromUint64(22)))
	assert.Equal(t, "0b10110", rec.Packed().String())

	rec, err = s.CreateUint64(map[string]uint64{"b": 3})
	require.NoError(t, err)
	a, err := rec.Uint64("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(3), rec.Packed().Uint64())

	_, err = s.CreateUint64(map[string]uint64{"c": 1})
	assert.ErrorIs(t, err, errors.ErrUnknownField)

	_, err = s.CreateUint64(map[string]uint64{"a": 8})
	assert.ErrorIs(t, err, errors.ErrOverflow)

	_, err = s.CreateUint64(map[string]uint64{"a": 8, "zz": 1})
	assert.ErrorIs(t, err, errors.ErrUnknownField)
}

func TestFromPacked(t *testing.T) {
	s := smallSchema(t)

	rec, err := s.FromUint64(22)
	require.NoError(t, err)

	a, err := rec.Uint64("a")
	require.NoError(t, err)
	b, err := rec.Uint64("b")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), a)
	assert.Equal(t, uint64(2), b)

	_, err = s.FromUint64(32)
	assert.ErrorIs(t, err, errors.ErrOverflow)

	rec, err = s.FromBytes([]byte{22}, bits.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, "Small(a=5, b=2)", rec.String())
}

func TestGetSet(t *testing.T) {
	s := smallSchema(t)
	rec, err := s.FromUint64(22)
	require.NoError(t, err)

	err = rec.SetUint64("a", 8)
	assert.ErrorIs(t, err, errors.ErrOverflow)
	assert.Equal(t, uint64(22), rec.Packed().Uint64())

	require.NoError(t, rec.SetUint64("a", 1))
	assert.Equal(t, uint64(0b00110), rec.Packed().Uint64())

	_, err = rec.Get("c")
	assert.ErrorIs(t, err, errors.ErrUnknownField)
	assert.ErrorIs(t, rec.SetUint64("c", 0), errors.ErrUnknownField)

	clone := rec.Clone()
	require.NoError(t, clone.SetUint64("b", 0))
	assert.Equal(t, uint64(0b00110), rec.Packed().Uint64())
	assert.Equal(t, uint64(0b00100), clone.Packed().Uint64())
}

func TestLastWriteWins(t *testing.T) {
	s := snowflakeSchema(t)
	rec, err := s.CreateUint64(nil)
	require.NoError(t, err)

	writes := []struct {
		name  string
		value uint64
	}{
		{"increment", 4095},
		{"timestamp", 1<<42 - 1},
		{"worker_id", 17},
		{"increment", 3},
		{"process_id", 31},
		{"timestamp", 12345},
	}
	want := map[string]uint64{}
	for _, w := range writes {
		require.NoError(t, rec.SetUint64(w.name, w.value))
		want[w.name] = w.value
		for name, v := range want {
			got, err := rec.Uint64(name)
			require.NoError(t, err)
			assert.Equal(t, v, got, name)
		}
	}
}

func TestSnowflakeLayout(t *testing.T) {
	s := snowflakeSchema(t)
	rec, err := s.FromUint64(175928847299117063)
	require.NoError(t, err)

	want := map[string]uint64{
		"timestamp":  41944705796,
		"worker_id":  1,
		"process_id": 0,
		"increment":  7,
	}
	for name, v := range want {
		got, err := rec.Uint64(name)
		require.NoError(t, err)
		assert.Equal(t, v, got, name)
	}
	assert.Equal(t, "ObjectID(timestamp=41944705796, worker_id=1, process_id=0, increment=7)", rec.String())
	assert.Len(t, rec.Bytes(bits.BigEndian), 8)
}

func TestWideFields(t *testing.T) {
	s, err := NewBuilder("Wide").Field("hi", 100).Field("lo", 28).Build()
	require.NoError(t, err)

	big100 := new(big.Int).Lsh(big.NewInt(1), 99)
	hi, err := bits.FromBig(big100)
	require.NoError(t, err)

	rec, err := s.Create(map[string]*bits.Value{"hi": hi, "lo": bits.FromUint64(5)})
	require.NoError(t, err)

	got, err := rec.Get("hi")
	require.NoError(t, err)
	assert.True(t, got.Equal(hi))

	_, err = rec.Uint64("hi")
	assert.ErrorIs(t, err, errors.ErrRange)

	lo, err := rec.Uint64("lo")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), lo)
	assert.Len(t, rec.Bytes(bits.BigEndian), 16)
}
