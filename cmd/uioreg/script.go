// Copyright (c) 2024 UIO register access for UIOuHAL.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/tswilliams/UIOuHAL/transport"
)

// script runs the Lua file against the connection.
func (a *app) script(file string) error {
	L := a.newLuaState()
	defer L.Close()
	return L.DoFile(file)
}

// newLuaState returns a Lua state with the register functions installed:
//
//	read(addr [, mask])               -> value
//	write(addr, value)
//	read_block(addr, count [, fifo])  -> {values}
//	write_block(addr, {values} [, fifo])
//	rmw_bits(addr, and, or)           -> value
//	rmw_sum(addr, addend)             -> value
//	dispatch()
//
// Functions returning values dispatch before returning. Access errors are
// raised as Lua errors.
func (a *app) newLuaState() *lua.LState {
	L := lua.NewState()
	for name, fn := range map[string]lua.LGFunction{
		"read":        a.luaRead,
		"write":       a.luaWrite,
		"read_block":  a.luaReadBlock,
		"write_block": a.luaWriteBlock,
		"rmw_bits":    a.luaRMWBits,
		"rmw_sum":     a.luaRMWSum,
		"dispatch":    a.luaDispatch,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func checkWord(L *lua.LState, n int) uint32 {
	v := float64(L.CheckNumber(n))
	if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		L.ArgError(n, "32-bit unsigned integer expected")
	}
	return uint32(v)
}

func checkAddend(L *lua.LState, n int) int32 {
	v := float64(L.CheckNumber(n))
	if v < math.MinInt32 || v > math.MaxInt32 || v != math.Trunc(v) {
		L.ArgError(n, "32-bit signed integer expected")
	}
	return int32(v)
}

func luaMode(L *lua.LState, n int) transport.BlockMode {
	if L.OptBool(n, false) {
		return transport.NonIncremental
	}
	return transport.Incremental
}

func (a *app) pushWord(L *lua.LState, w *transport.ValWord, err error) int {
	if err == nil {
		err = a.conn.Dispatch()
	}
	var v uint32
	if err == nil {
		v, err = w.Value()
	}
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (a *app) luaRead(L *lua.LState) int {
	addr := checkWord(L, 1)
	mask := uint32(0xFFFFFFFF)
	if L.GetTop() >= 2 {
		mask = checkWord(L, 2)
	}
	w, err := a.conn.Read(addr, mask)
	return a.pushWord(L, w, err)
}

func (a *app) luaWrite(L *lua.LState) int {
	if err := a.conn.Write(checkWord(L, 1), checkWord(L, 2)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (a *app) luaReadBlock(L *lua.LState) int {
	addr, count := checkWord(L, 1), checkWord(L, 2)
	vec, err := a.conn.ReadBlock(addr, count, luaMode(L, 3))
	if err == nil {
		err = a.conn.Dispatch()
	}
	var values []uint32
	if err == nil {
		values, err = vec.Values()
	}
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}

	tbl := L.NewTable()
	for _, v := range values {
		tbl.Append(lua.LNumber(v))
	}
	L.Push(tbl)
	return 1
}

func (a *app) luaWriteBlock(L *lua.LState) int {
	addr := checkWord(L, 1)
	tbl := L.CheckTable(2)

	values := make([]uint32, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		n, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok || n < 0 || n > math.MaxUint32 {
			L.ArgError(2, "table of 32-bit unsigned integers expected")
		}
		values = append(values, uint32(n))
	}
	if err := a.conn.WriteBlock(addr, values, luaMode(L, 3)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (a *app) luaRMWBits(L *lua.LState) int {
	w, err := a.conn.RMWBits(checkWord(L, 1), checkWord(L, 2), checkWord(L, 3))
	return a.pushWord(L, w, err)
}

func (a *app) luaRMWSum(L *lua.LState) int {
	w, err := a.conn.RMWSum(checkWord(L, 1), checkAddend(L, 2))
	return a.pushWord(L, w, err)
}

func (a *app) luaDispatch(L *lua.LState) int {
	if err := a.conn.Dispatch(); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}
