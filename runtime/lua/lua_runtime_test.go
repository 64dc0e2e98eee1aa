package lua

import (
	"testing"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSmallRecord(t *testing.T) *bitfield.Record {
	t.Helper()
	s := bitfield.MustSchema("Small",
		bitfield.FieldSpec{Name: "a", Width: 3},
		bitfield.FieldSpec{Name: "b", Width: 2},
	)
	rec, err := s.FromUint64(22)
	require.NoError(t, err)
	return rec
}

func newRuntime(t *testing.T) *LuaRuntime {
	t.Helper()
	lr := NewRuntime()
	t.Cleanup(func() { _ = lr.Close() })
	return lr
}

func TestEvalReadsFields(t *testing.T) {
	lr := newRuntime(t)
	rec := newSmallRecord(t)

	tests := []struct {
		code string
		want string
	}{
		{"return a * 2", "10"},
		{"return a, b", "5\t2"},
		{"return get('b') + width('a')", "5"},
		{"return a / 2", "2.5"},
		{"return 'x' .. b", "x2"},
		{"local unused = 1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := lr.Eval(rec, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, uint64(22), rec.Packed().Uint64())
}

func TestEvalWritesBack(t *testing.T) {
	lr := newRuntime(t)
	rec := newSmallRecord(t)

	_, err := lr.Eval(rec, "a = 3")
	require.NoError(t, err)
	a, err := rec.Uint64("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), a)

	_, err = lr.Eval(rec, "set('b', 1)")
	require.NoError(t, err)
	b, err := rec.Uint64("b")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)

	_, err = lr.Eval(rec, "b = 0; set('b', 3)")
	require.NoError(t, err)
	b, err = rec.Uint64("b")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), b)
}

func TestEvalRejectedWritesLeaveRecord(t *testing.T) {
	lr := newRuntime(t)
	rec := newSmallRecord(t)

	tests := []struct {
		name string
		code string
		want error
	}{
		{"overflow global", "b = 0; a = 9", errors.ErrOverflow},
		{"overflow set", "set('a', 8)", errors.ErrOverflow},
		{"unknown field", "set('zz', 1)", errors.ErrUnknownField},
		{"unknown width", "return width('zz')", errors.ErrUnknownField},
		{"fraction", "a = 1.5", errors.ErrInvalidValue},
		{"negative", "a = -1", errors.ErrInvalidValue},
		{"string", "a = 'many'", errors.ErrParse},
		{"runtime error", "error('boom')", errors.ErrInvalidValue},
		{"syntax error", "a = = 1", errors.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lr.Eval(rec, tt.code)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, uint64(22), rec.Packed().Uint64())
		})
	}
}

func TestEvalStringLiterals(t *testing.T) {
	lr := newRuntime(t)
	rec := newSmallRecord(t)

	_, err := lr.Eval(rec, "a = '0b111'")
	require.NoError(t, err)
	a, err := rec.Uint64("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), a)
}

func TestWideFieldsCannotBind(t *testing.T) {
	lr := newRuntime(t)
	s := bitfield.MustSchema("Wide", bitfield.FieldSpec{Name: "x", Width: 60})
	rec, err := s.FromUint64(1 << 55)
	require.NoError(t, err)

	_, err = lr.Eval(rec, "return x")
	assert.ErrorIs(t, err, errors.ErrRange)

	require.NoError(t, rec.SetUint64("x", 1<<52))
	got, err := lr.Eval(rec, "return x")
	require.NoError(t, err)
	assert.Equal(t, "4503599627370496", got)
}

func TestBindAndExec(t *testing.T) {
	lr := newRuntime(t)

	_, err := lr.Exec("return 1")
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	rec := newSmallRecord(t)
	require.NoError(t, lr.Bind(rec))

	got, err := lr.Exec("a = a - 1; return a")
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	a, err := rec.Uint64("a")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), a)

	other := newSmallRecord(t)
	_, err = lr.Eval(other, "b = 0")
	require.NoError(t, err)

	got, err = lr.Exec("return b")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestComputedField(t *testing.T) {
	lr := newRuntime(t)
	s := bitfield.MustSchema("ObjectID",
		bitfield.FieldSpec{Name: "timestamp", Width: 42},
		bitfield.FieldSpec{Name: "worker_id", Width: 5},
		bitfield.FieldSpec{Name: "process_id", Width: 5},
		bitfield.FieldSpec{Name: "increment", Width: 12},
	)
	rec, err := s.FromUint64(175928847299117063)
	require.NoError(t, err)

	created := lr.Computed(bitfield.ComputedDef{
		Name: "created_at",
		Get:  "return timestamp + 1420070400000",
		Set:  "timestamp = value - 1420070400000",
	})

	got, err := created.Read(rec)
	require.NoError(t, err)
	assert.Equal(t, uint64(1462015105796), got.Uint64())

	require.NoError(t, created.Write(rec, bits.FromUint64(1462015106796)))
	ts, err := rec.Uint64("timestamp")
	require.NoError(t, err)
	assert.Equal(t, uint64(41944706796), ts)

	err = created.Write(rec, bits.FromUint64(1000))
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
	ts, err = rec.Uint64("timestamp")
	require.NoError(t, err)
	assert.Equal(t, uint64(41944706796), ts)

	readOnly := lr.Computed(bitfield.ComputedDef{Name: "ro", Get: "return increment"})
	err = readOnly.Write(rec, bits.FromUint64(1))
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	empty := lr.Computed(bitfield.ComputedDef{Name: "none", Get: "local x = 1"})
	_, err = empty.Read(rec)
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}

func TestCloseIsIdempotent(t *testing.T) {
	lr := newRuntime(t)
	rec := newSmallRecord(t)
	require.NoError(t, lr.Bind(rec))

	require.NoError(t, lr.Close())
	assert.NotPanics(t, func() { assert.NoError(t, lr.Close()) })

	_, err := lr.Eval(rec, "return a")
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
	assert.ErrorIs(t, lr.Bind(rec), errors.ErrInvalidValue)
	_, err = lr.Computed(bitfield.ComputedDef{Name: "x", Get: "return a"}).Read(rec)
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}
