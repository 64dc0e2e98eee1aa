// Package snowflake decodes and builds 64-bit Snowflake object IDs: a 42-bit
// millisecond timestamp relative to a custom epoch, a 5-bit worker, a 5-bit
// process and a 12-bit per-process increment.
package snowflake

import (
	"fmt"
	"time"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"
)

// Epoch is the first millisecond of 2015 (UTC), the epoch Discord IDs count from.
const Epoch int64 = 1420070400000

const (
	FieldTimestamp = "timestamp"
	FieldWorkerID  = "worker_id"
	FieldProcessID = "process_id"
	FieldIncrement = "increment"
)

// Layout is the packed layout of an ID.
var Layout = bitfield.MustSchema("ObjectID",
	bitfield.FieldSpec{Name: FieldTimestamp, Width: 42},
	bitfield.FieldSpec{Name: FieldWorkerID, Width: 5},
	bitfield.FieldSpec{Name: FieldProcessID, Width: 5},
	bitfield.FieldSpec{Name: FieldIncrement, Width: 12},
)

// Parts are the decoded fields of an ID.
type Parts struct {
	Timestamp uint64
	WorkerID  uint64
	ProcessID uint64
	Increment uint64
}

// ID is a Snowflake object ID.
type ID struct {
	rec *bitfield.Record
}

// Parse decodes a raw ID.
func Parse(raw uint64) (ID, error) {
	rec, err := Layout.FromUint64(raw)
	if err != nil {
		return ID{}, err
	}
	return ID{rec: rec}, nil
}

// FromRecord wraps a record laid out by Layout.
func FromRecord(rec *bitfield.Record) (ID, error) {
	if rec.Schema() != Layout {
		return ID{}, errors.NewInvalidValueError("WRONG_LAYOUT",
			fmt.Sprintf("record uses schema %s, not the snowflake layout", rec.Schema().Name()))
	}
	return ID{rec: rec.Clone()}, nil
}

// New packs the given parts.
func New(p Parts) (ID, error) {
	rec, err := Layout.CreateUint64(map[string]uint64{
		FieldTimestamp: p.Timestamp,
		FieldWorkerID:  p.WorkerID,
		FieldProcessID: p.ProcessID,
		FieldIncrement: p.Increment,
	})
	if err != nil {
		return ID{}, err
	}
	return ID{rec: rec}, nil
}

func (id ID) field(name string) uint64 {
	n, err := id.rec.Uint64(name)
	if err != nil {
		// every snowflake field is narrower than 64 bits
		panic(err)
	}
	return n
}

// Timestamp returns milliseconds since Epoch.
func (id ID) Timestamp() uint64 { return id.field(FieldTimestamp) }

// WorkerID returns the internal worker ID.
func (id ID) WorkerID() uint64 { return id.field(FieldWorkerID) }

// ProcessID returns the process ID.
func (id ID) ProcessID() uint64 { return id.field(FieldProcessID) }

// Increment returns the per-process increment.
func (id ID) Increment() uint64 { return id.field(FieldIncrement) }

// Parts returns all decoded fields.
func (id ID) Parts() Parts {
	return Parts{
		Timestamp: id.Timestamp(),
		WorkerID:  id.WorkerID(),
		ProcessID: id.ProcessID(),
		Increment: id.Increment(),
	}
}

// CreatedAt returns the creation time encoded in the timestamp.
func (id ID) CreatedAt() time.Time {
	return time.UnixMilli(int64(id.Timestamp()) + Epoch).UTC()
}

// SetCreatedAt re-encodes the timestamp from t, truncated to milliseconds.
// Times before Epoch fail with INVALID_VALUE, times past the 42-bit range
// with OVERFLOW.
func (id ID) SetCreatedAt(t time.Time) error {
	ms := t.UnixMilli() - Epoch
	if ms < 0 {
		return errors.NewInvalidValueError("BEFORE_EPOCH",
			fmt.Sprintf("%s is before the snowflake epoch", t.UTC().Format(time.RFC3339)))
	}
	return id.rec.Set(FieldTimestamp, bits.FromUint64(uint64(ms)))
}

// Uint64 returns the raw ID.
func (id ID) Uint64() uint64 {
	return id.rec.Packed().Uint64()
}

// Record returns a copy of the underlying record.
func (id ID) Record() *bitfield.Record {
	return id.rec.Clone()
}

// String renders the ID with its fields.
func (id ID) String() string {
	return id.rec.String()
}
