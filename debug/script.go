// script.go - Lua-scripted breakpoint/watchpoint conditions

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
script.go - evaluateScript

debug_conditions.go's register/memory/hitcount grammar covers one
comparison against one live value. A condition that needs to combine
several ("reg('R0') + reg('R1') > 100", or a loop-invariant check across
a range of memory) has nowhere to go in that grammar, so CondSourceScript
hands the expression to an embedded Lua interpreter instead, exposing the
same register/memory reads a plain condition would use as the reg()/
mem() globals a script calls into.

A fresh *lua.LState is spun up per evaluation rather than kept around
per-Adapter: breakpoint conditions are checked at most once per stepped
instruction while actively debugging, nowhere near hot enough to justify
the bookkeeping a pooled interpreter would need, and a throwaway state
can never leak one script's global into the next's.
*/

package debug

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

func evaluateScript(source string, a *Adapter) (bool, error) {
	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("reg", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := a.GetRegister(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	}))
	L.SetGlobal("mem", L.NewFunction(func(L *lua.LState) int {
		addr := uint32(L.CheckInt(1))
		data := a.ReadMemory(addr, 1)
		L.Push(lua.LNumber(data[0]))
		return 1
	}))
	L.SetGlobal("pc", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(a.PC()))
		return 1
	}))

	if err := L.DoString(fmt.Sprintf("__result = (%s)", source)); err != nil {
		return false, fmt.Errorf("evaluating script condition %q: %w", source, err)
	}
	return lua.LVAsBool(L.GetGlobal("__result")), nil
}
