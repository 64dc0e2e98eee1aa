package bitfield

import (
	"os"
	"path/filepath"
	"testing"

	"bitpack/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
schemas:
  - name: Small
    fields:
      - {name: a, width: 3}
      - {name: b, width: 2}
    computed:
      - name: doubled
        get: "return a * 2"
`

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions([]byte(sampleYAML), "yaml")
	require.NoError(t, err)
	require.Len(t, defs.Schemas, 1)

	def, ok := defs.Find("Small")
	require.True(t, ok)

	s, err := def.Schema()
	require.NoError(t, err)
	assert.Equal(t, 5, s.TotalWidth())

	c, ok := def.ComputedField("doubled")
	require.True(t, ok)
	assert.Equal(t, "return a * 2", c.Get)

	_, ok = defs.Find("Missing")
	assert.False(t, ok)
}

func TestParseDefinitionsRejectsBadInput(t *testing.T) {
	_, err := ParseDefinitions([]byte("schemas: [oops"), "yaml")
	assert.ErrorIs(t, err, errors.ErrParse)

	_, err = ParseDefinitions([]byte(`{"schemas":[{"name":"X","fields":[{"name":"a","width":0}]}]}`), "json")
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}

func TestLoadDefinitionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemas":[{"name":"Pair","fields":[{"name":"x","width":4},{"name":"y","width":4}]}]}`), 0o644))

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	def, ok := defs.Find("Pair")
	require.True(t, ok)

	s, err := def.Schema()
	require.NoError(t, err)
	assert.Equal(t, def, DefinitionOf(s))

	_, err = LoadDefinitions(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.KindSystem, errors.KindOf(err))
}
