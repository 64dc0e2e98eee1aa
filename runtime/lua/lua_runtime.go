package lua

import (
	"fmt"
	"strings"
	"sync"

	"bitpack/bitfield"
	"bitpack/errors"

	lua "github.com/yuin/gopher-lua"
)

// valueGlobal carries the incoming value into a computed field setter.
const valueGlobal = "value"

// LuaRuntime evaluates Lua chunks against a record. Every field of the bound
// record is visible as a global number; the helpers get(name), set(name, v)
// and width(name) work on the same record.
type LuaRuntime struct {
	state *lua.LState
	mu    sync.Mutex

	session *bitfield.Record
	current *bitfield.Record
	bound   map[string]lua.LValue
	lastErr error
}

// NewRuntime creates a runtime with the base, table, string and math libraries.
func NewRuntime() *LuaRuntime {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	lr := &LuaRuntime{state: L, bound: map[string]lua.LValue{}}
	lr.registerRecordFunctions()
	return lr
}

// GetName returns the name of the runtime
func (lr *LuaRuntime) GetName() string {
	return "lua"
}

// Close releases the Lua state. Closing twice is a no-op.
func (lr *LuaRuntime) Close() error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.state != nil {
		lr.state.Close()
		lr.state = nil
	}
	lr.session = nil
	lr.current = nil
	return nil
}

func (lr *LuaRuntime) registerRecordFunctions() {
	lr.state.SetGlobal("get", lr.state.NewFunction(func(L *lua.LState) int {
		rec := lr.record(L)
		v, err := rec.Get(L.CheckString(1))
		if err != nil {
			return lr.raise(L, err)
		}
		n, err := toLua(v)
		if err != nil {
			return lr.raise(L, err)
		}
		L.Push(n)
		return 1
	}))

	lr.state.SetGlobal("set", lr.state.NewFunction(func(L *lua.LState) int {
		rec := lr.record(L)
		name := L.CheckString(1)
		raw := L.Get(2)
		v, err := fromLua(raw)
		if err != nil {
			return lr.raise(L, err)
		}
		if err := rec.Set(name, v); err != nil {
			return lr.raise(L, err)
		}
		// keep the global in step so write-back does not undo the call
		L.SetGlobal(name, raw)
		lr.bound[name] = raw
		return 0
	}))

	lr.state.SetGlobal("width", lr.state.NewFunction(func(L *lua.LState) int {
		rec := lr.record(L)
		name := L.CheckString(1)
		f, ok := rec.Schema().Field(name)
		if !ok {
			return lr.raise(L, errors.NewUnknownFieldError(name))
		}
		L.Push(lua.LNumber(f.Width))
		return 1
	}))
}

func errClosed() error {
	return errors.NewInvalidValueError("RUNTIME_CLOSED", "lua runtime is closed")
}

func (lr *LuaRuntime) record(L *lua.LState) *bitfield.Record {
	if lr.current == nil {
		L.RaiseError("no record is bound")
	}
	return lr.current
}

// raise aborts the running chunk, remembering err so the caller sees the
// original coded error instead of Lua's message.
func (lr *LuaRuntime) raise(L *lua.LState, err error) int {
	lr.lastErr = err
	L.RaiseError("%s", err.Error())
	return 0
}

// Bind makes rec the record Exec runs against.
func (lr *LuaRuntime) Bind(rec *bitfield.Record) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.state == nil {
		return errClosed()
	}
	if err := lr.bind(rec); err != nil {
		return err
	}
	lr.session = rec
	return nil
}

// Exec is Eval against the record passed to Bind.
func (lr *LuaRuntime) Exec(code string) (string, error) {
	lr.mu.Lock()
	rec := lr.session
	lr.mu.Unlock()

	if rec == nil {
		return "", errors.NewInvalidValueError("NO_RECORD", "no record is bound")
	}
	return lr.Eval(rec, code)
}

func (lr *LuaRuntime) bind(rec *bitfield.Record) error {
	lr.unbind()

	globals := make(map[string]lua.LValue, len(rec.Schema().Names()))
	for _, name := range rec.Schema().Names() {
		v, err := rec.Get(name)
		if err != nil {
			return err
		}
		n, err := toLua(v)
		if err != nil {
			if be, ok := errors.AsBitError(err); ok {
				be.WithContext("field", name)
			}
			return err
		}
		globals[name] = n
	}

	for name, n := range globals {
		lr.state.SetGlobal(name, n)
	}
	lr.bound = globals
	lr.current = rec
	return nil
}

// rebind restores the globals of the session record after a run.
func (lr *LuaRuntime) rebind() {
	lr.unbind()
	if lr.session != nil {
		if err := lr.bind(lr.session); err != nil {
			lr.session = nil
		}
	}
}

func (lr *LuaRuntime) unbind() {
	for name := range lr.bound {
		lr.state.SetGlobal(name, lua.LNil)
	}
	lr.state.SetGlobal(valueGlobal, lua.LNil)
	lr.bound = map[string]lua.LValue{}
	lr.current = nil
}

// Eval runs code against rec and returns its results, tab separated. Field
// globals the chunk reassigned are written back through Record.Set, so a
// value that does not fit fails with OVERFLOW. The record only changes when
// the whole chunk succeeds.
func (lr *LuaRuntime) Eval(rec *bitfield.Record, code string) (string, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	results, err := lr.run(rec, code, nil, true)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(results))
	for i, v := range results {
		parts[i] = luaValueToString(v)
	}
	return strings.Join(parts, "\t"), nil
}

// run executes code on a clone of rec. With commit set, the clone's fields
// are copied back into rec after a successful run.
func (lr *LuaRuntime) run(rec *bitfield.Record, code string, extra map[string]lua.LValue, commit bool) ([]lua.LValue, error) {
	if lr.state == nil {
		return nil, errClosed()
	}
	work := rec.Clone()
	if err := lr.bind(work); err != nil {
		return nil, err
	}
	defer lr.rebind()

	for name, v := range extra {
		if _, clash := lr.bound[name]; clash {
			return nil, errors.NewInvalidValueError("RESERVED_NAME",
				fmt.Sprintf("field %s shadows the %s global", name, name))
		}
		lr.state.SetGlobal(name, v)
	}

	fn, err := lr.state.LoadString(code)
	if err != nil {
		return nil, errors.NewParseError("LUA_SYNTAX_ERROR",
			fmt.Sprintf("error compiling code: %v", err)).Wrap(err)
	}

	lr.lastErr = nil
	top := lr.state.GetTop()
	lr.state.Push(fn)
	if err := lr.state.PCall(0, lua.MultRet, nil); err != nil {
		lr.state.SetTop(top)
		if lr.lastErr != nil {
			return nil, lr.lastErr
		}
		return nil, errors.NewInvalidValueError("LUA_EVAL_ERROR",
			fmt.Sprintf("error evaluating code: %v", err)).Wrap(err)
	}

	n := lr.state.GetTop() - top
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = lr.state.Get(top + i + 1)
	}
	lr.state.SetTop(top)

	if !commit {
		return results, nil
	}
	if err := lr.writeBack(work); err != nil {
		return nil, err
	}
	for _, name := range rec.Schema().Names() {
		v, err := work.Get(name)
		if err == nil {
			err = rec.Set(name, v)
		}
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (lr *LuaRuntime) writeBack(work *bitfield.Record) error {
	for _, name := range work.Schema().Names() {
		cur := lr.state.GetGlobal(name)
		if cur == lr.bound[name] {
			continue
		}
		v, err := fromLua(cur)
		if err == nil {
			err = work.Set(name, v)
		}
		if err != nil {
			if be, ok := errors.AsBitError(err); ok {
				be.WithContext("field", name)
			}
			return err
		}
	}
	return nil
}
