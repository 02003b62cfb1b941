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
	"fmt"
	"io"
	"strconv"

	"github.com/tswilliams/UIOuHAL/core"
	"github.com/tswilliams/UIOuHAL/transport"
	"github.com/tswilliams/UIOuHAL/transport/uio"
)

type app struct {
	conn *core.Connection
	out  io.Writer
	tty  bool
	fifo bool
}

type command struct {
	args int
	run  func(a *app, args []uint32) error
}

var commands = map[string]command{
	"read":     {args: -1, run: (*app).read},
	"write":    {args: 2, run: (*app).write},
	"block":    {args: 2, run: (*app).block},
	"rmw-bits": {args: 3, run: (*app).rmwBits},
	"rmw-sum":  {args: 2, run: (*app).rmwSum},
}

func (a *app) run(name string, args []string) error {
	switch name {
	case "devices":
		return a.devices()
	case "script":
		if len(args) != 1 {
			return fmt.Errorf("expected a script file")
		}
		return a.script(args[0])
	case "write-block":
		if len(args) < 2 {
			return fmt.Errorf("expected an address and at least one value")
		}
		words, err := parseWords(args)
		if err != nil {
			return err
		}
		return a.conn.WriteBlock(words[0], words[1:], a.mode())
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if cmd.args >= 0 && len(args) != cmd.args {
		return fmt.Errorf("expected %d arguments, got %d", cmd.args, len(args))
	}
	words, err := parseWords(args)
	if err != nil {
		return err
	}
	return cmd.run(a, words)
}

func parseWords(args []string) ([]uint32, error) {
	words := make([]uint32, len(args))
	for i, s := range args {
		v, err := strconv.ParseUint(s, 0, 32)
		if err != nil {
			// addends may be negative
			n, nerr := strconv.ParseInt(s, 0, 32)
			if nerr != nil {
				return nil, fmt.Errorf("bad number %q: %v", s, err)
			}
			v = uint64(uint32(n))
		}
		words[i] = uint32(v)
	}
	return words, nil
}

func (a *app) mode() transport.BlockMode {
	if a.fifo {
		return transport.NonIncremental
	}
	return transport.Incremental
}

// printWord prints addr and value, with the decimal value on a terminal.
func (a *app) printWord(addr, value uint32) {
	if a.tty {
		fmt.Fprintf(a.out, "0x%08X: 0x%08X  %10d\n", addr, value, value)
		return
	}
	fmt.Fprintf(a.out, "0x%08X 0x%08X\n", addr, value)
}

func (a *app) value(addr uint32, w *transport.ValWord) error {
	if err := a.conn.Dispatch(); err != nil {
		return err
	}
	v, err := w.Value()
	if err != nil {
		return err
	}
	a.printWord(addr, v)
	return nil
}

func (a *app) read(args []uint32) error {
	mask := uint32(0xFFFFFFFF)
	switch len(args) {
	case 1:
	case 2:
		mask = args[1]
	default:
		return fmt.Errorf("expected an address and an optional mask")
	}
	w, err := a.conn.Read(args[0], mask)
	if err != nil {
		return err
	}
	return a.value(args[0], w)
}

func (a *app) write(args []uint32) error {
	return a.conn.Write(args[0], args[1])
}

func (a *app) block(args []uint32) error {
	addr, mode := args[0], a.mode()
	vec, err := a.conn.ReadBlock(addr, args[1], mode)
	if err != nil {
		return err
	}
	if err := a.conn.Dispatch(); err != nil {
		return err
	}
	values, err := vec.Values()
	if err != nil {
		return err
	}
	for i, v := range values {
		if mode == transport.Incremental {
			a.printWord(addr+uint32(i), v)
		} else {
			a.printWord(addr, v)
		}
	}
	return nil
}

func (a *app) rmwBits(args []uint32) error {
	w, err := a.conn.RMWBits(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	return a.value(args[0], w)
}

func (a *app) rmwSum(args []uint32) error {
	w, err := a.conn.RMWSum(args[0], int32(args[1]))
	if err != nil {
		return err
	}
	return a.value(args[0], w)
}

func (a *app) devices() error {
	client, ok := a.conn.Transport().(*uio.Client)
	if !ok {
		return fmt.Errorf("transport %T does not list devices", a.conn.Transport())
	}
	for _, d := range client.Devices() {
		fmt.Fprintf(a.out, "%-16s 0x%08X-0x%08X %s\n", d.Name, d.Base, d.End(), d.Path)
	}
	return nil
}
