package runtime_test

import (
	"testing"

	"bitpack/bitfield"
	"bitpack/errors"
	"bitpack/runtime"
	"bitpack/runtime/lua"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeManager(t *testing.T) {
	rm := runtime.NewRuntimeManager()
	require.NoError(t, rm.RegisterRuntime(lua.NewRuntime()))
	defer func() { assert.NoError(t, rm.CloseAll()) }()

	dup := lua.NewRuntime()
	defer dup.Close()
	err := rm.RegisterRuntime(dup)
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	rt, err := rm.GetRuntime("lua")
	require.NoError(t, err)
	assert.Equal(t, "lua", rt.GetName())
	assert.Equal(t, []string{"lua"}, rm.ListRuntimes())

	_, err = rm.GetRuntime("python")
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	s := bitfield.MustSchema("One", bitfield.FieldSpec{Name: "n", Width: 8})
	rec, err := s.FromUint64(200)
	require.NoError(t, err)
	require.NoError(t, rm.BindAll(rec))

	got, err := rt.Exec("return n + 1")
	require.NoError(t, err)
	assert.Equal(t, "201", got)
}

func TestCloseAllTwice(t *testing.T) {
	rm := runtime.NewRuntimeManager()
	require.NoError(t, rm.RegisterRuntime(lua.NewRuntime()))

	require.NoError(t, rm.CloseAll())
	assert.NotPanics(t, func() { assert.NoError(t, rm.CloseAll()) })

	rt, err := rm.GetRuntime("lua")
	require.NoError(t, err)
	_, err = rt.Exec("return 1")
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}
