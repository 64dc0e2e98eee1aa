package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completions(c *Completer, line string) ([]string, int) {
	runes := []rune(line)
	suggestions, length := c.Do(runes, len(runes))
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = string(s)
	}
	return out, length
}

func TestCompleteCommands(t *testing.T) {
	c := NewCompleter(newInterpreter(t))

	got, n := completions(c, "se")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"t ", "tbit ", "tslice "}, got)

	got, _ = completions(c, ":sch")
	assert.Equal(t, []string{"ema ", "emas "}, got)

	got, _ = completions(c, "zzz")
	assert.Empty(t, got)
}

func TestCompleteArguments(t *testing.T) {
	interp := newInterpreter(t)
	c := NewCompleter(interp)

	got, _ := completions(c, ":schema O")
	assert.Equal(t, []string{"bjectID "}, got)

	got, _ = completions(c, "get ")
	assert.Empty(t, got, "no schema selected")

	require.NoError(t, interp.SelectSchema("ObjectID"))

	got, n := completions(c, "get w")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"orker_id "}, got)

	got, _ = completions(c, "computed ")
	assert.Equal(t, []string{"created_at ", "origin "}, got)

	got, _ = completions(c, "get c")
	assert.Equal(t, []string{"reated_at "}, got)

	got, _ = completions(c, "new timestamp=1 i")
	assert.Equal(t, []string{"ncrement="}, got)

	got, _ = completions(c, "new timestamp=")
	assert.Empty(t, got)

	got, _ = completions(c, "encode m")
	assert.Equal(t, []string{"sgpack "}, got)

	got, _ = completions(c, "convert json y")
	assert.Equal(t, []string{"aml "}, got)

	got, _ = completions(c, "convert json yaml b")
	assert.Empty(t, got)

	got, _ = completions(c, "op x")
	assert.Equal(t, []string{"or "}, got)

	got, _ = completions(c, "tobytes l")
	assert.Equal(t, []string{"ittle "}, got)

	got, _ = completions(c, "bytes l")
	assert.Empty(t, got)
}
