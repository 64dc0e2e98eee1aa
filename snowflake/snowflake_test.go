package snowflake

import (
	"testing"
	"time"

	"bitpack/bitfield"
	"bitpack/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleID uint64 = 175928847299117063

func TestParse(t *testing.T) {
	id, err := Parse(sampleID)
	require.NoError(t, err)

	assert.Equal(t, Parts{Timestamp: 41944705796, WorkerID: 1, ProcessID: 0, Increment: 7}, id.Parts())
	assert.Equal(t, "ObjectID(timestamp=41944705796, worker_id=1, process_id=0, increment=7)", id.String())
	assert.Equal(t, sampleID, id.Uint64())
}

func TestCreatedAt(t *testing.T) {
	id, err := Parse(sampleID)
	require.NoError(t, err)

	want := time.Date(2016, 4, 30, 11, 18, 25, 796*int(time.Millisecond), time.UTC)
	assert.True(t, want.Equal(id.CreatedAt()), id.CreatedAt().String())

	later := time.Date(2092, 3, 28, 0, 0, 0, 0, time.UTC)
	require.NoError(t, id.SetCreatedAt(later))
	assert.Equal(t, uint64(2437430400000), id.Timestamp())
	assert.True(t, later.Equal(id.CreatedAt()))
	assert.Equal(t, uint64(1), id.WorkerID())
	assert.Equal(t, uint64(7), id.Increment())
}

func TestSetCreatedAtBounds(t *testing.T) {
	id, err := New(Parts{Timestamp: 10})
	require.NoError(t, err)

	err = id.SetCreatedAt(time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, errors.ErrInvalidValue)

	err = id.SetCreatedAt(time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, errors.ErrOverflow)
	assert.Equal(t, uint64(10), id.Timestamp())
}

func TestNewRoundTrip(t *testing.T) {
	parts := Parts{Timestamp: 41944705796, WorkerID: 1, ProcessID: 0, Increment: 7}
	id, err := New(parts)
	require.NoError(t, err)
	assert.Equal(t, sampleID, id.Uint64())

	_, err = New(Parts{WorkerID: 32})
	assert.ErrorIs(t, err, errors.ErrOverflow)
}

func TestFromRecord(t *testing.T) {
	rec, err := Layout.FromUint64(sampleID)
	require.NoError(t, err)

	id, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, sampleID, id.Uint64())

	other := bitfield.MustSchema("Other", bitfield.FieldSpec{Name: "x", Width: 64})
	rec, err = other.FromUint64(sampleID)
	require.NoError(t, err)
	_, err = FromRecord(rec)
	assert.ErrorIs(t, err, errors.ErrInvalidValue)
}
