package lua

import (
	"fmt"

	"bitpack/bitfield"
	"bitpack/bits"
	"bitpack/errors"

	lua "github.com/yuin/gopher-lua"
)

// ComputedField is a derived field whose getter and setter are Lua chunks.
type ComputedField struct {
	Name string
	Get  string
	Set  string

	rt *LuaRuntime
}

// Computed binds a computed field definition to the runtime.
func (lr *LuaRuntime) Computed(def bitfield.ComputedDef) *ComputedField {
	return &ComputedField{Name: def.Name, Get: def.Get, Set: def.Set, rt: lr}
}

// Read runs the getter and returns its first result. The record is never
// modified.
func (c *ComputedField) Read(rec *bitfield.Record) (*bits.Value, error) {
	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()

	results, err := c.rt.run(rec, c.Get, nil, false)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.NewInvalidValueError("NO_RESULT",
			fmt.Sprintf("computed field %s returned nothing", c.Name))
	}
	return fromLua(results[0])
}

// Write runs the setter with v bound to the global "value".
func (c *ComputedField) Write(rec *bitfield.Record, v *bits.Value) error {
	if c.Set == "" {
		return errors.NewInvalidValueError("READ_ONLY",
			fmt.Sprintf("computed field %s has no setter", c.Name))
	}
	n, err := toLua(v)
	if err != nil {
		return err
	}

	c.rt.mu.Lock()
	defer c.rt.mu.Unlock()

	_, err = c.rt.run(rec, c.Set, map[string]lua.LValue{valueGlobal: n}, true)
	return err
}
