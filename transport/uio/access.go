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

package uio

import (
	"fmt"

	"github.com/tswilliams/UIOuHAL/sigbus"
	"github.com/tswilliams/UIOuHAL/transport"
)

// guard runs one hardware access to the register at addr in its own
// sigbus session.
func guard(addr uint32, access func()) error {
	return sigbus.Do(fmt.Sprintf("Reg: 0x%08X", addr), access)
}

// locate resolves addr and checks that its offset is inside the window.
func (c *Client) locate(addr uint32) (*Device, uint32, error) {
	d, offset, err := c.devices.Resolve(addr)
	if err != nil {
		return nil, 0, err
	}
	if offset >= d.Size {
		return nil, 0, outOfRange(addr, d)
	}
	return d, offset, nil
}

func blockOutOfRange(addr, words uint32, d *Device) *DeviceOutOfRangeError {
	err := outOfRange(addr, d)
	err.Words = words
	return err
}

func outOfRange(addr uint32, d *Device) *DeviceOutOfRangeError {
	return &DeviceOutOfRangeError{
		Addr:   addr,
		Mapped: true,
		Device: d.Name,
		Base:   d.Base,
		End:    d.End(),
	}
}

// Read reads the word at addr. The returned word becomes valid at the next
// Dispatch.
func (c *Client) Read(addr uint32, mask uint32) (*transport.ValWord, error) {
	var w *transport.ValWord
	err := c.exec(func() error {
		d, offset, err := c.locate(addr)
		if err != nil {
			return err
		}

		var v uint32
		if err := guard(addr, func() { v = d.window.Load(offset) }); err != nil {
			return err
		}
		w = transport.NewValWord(v, mask)
		c.pending.add(w)
		c.primeDispatch()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Write writes value to the word at addr.
func (c *Client) Write(addr uint32, value uint32) error {
	return c.exec(func() error {
		d, offset, err := c.locate(addr)
		if err != nil {
			return err
		}
		return guard(addr, func() { d.window.Store(offset, value) })
	})
}

// ReadBlock reads count words starting at addr. In Incremental mode the
// block must end strictly before the end of the window. Every word is held
// in memory until dispatch, so count is limited by SetMaxBlockWords. The returned vector
// becomes valid at the next Dispatch.
func (c *Client) ReadBlock(addr uint32, count uint32, mode transport.BlockMode) (*transport.ValVector, error) {
	var vec *transport.ValVector
	err := c.exec(func() error {
		d, offset, err := c.locate(addr)
		if err != nil {
			return err
		}
		if mode == transport.Incremental && uint64(offset)+uint64(count) >= uint64(d.Size) {
			return blockOutOfRange(addr, count, d)
		}
		if count > c.maxBlockWords {
			return fmt.Errorf("%w: %d words at 0x%08X (limit %d)", ErrBlockTooLarge, count, addr, c.maxBlockWords)
		}

		values := make([]uint32, count)
		for i := range values {
			if err := guard(d.Base+offset, func() { values[i] = d.window.Load(offset) }); err != nil {
				return err
			}
			if mode == transport.Incremental {
				offset++
			}
		}
		vec = transport.NewValVector(values)
		c.pending.add(vec)
		c.primeDispatch()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// WriteBlock writes values starting at addr. The block must end strictly
// before the end of the window whatever the mode.
func (c *Client) WriteBlock(addr uint32, values []uint32, mode transport.BlockMode) error {
	return c.exec(func() error {
		d, offset, err := c.locate(addr)
		if err != nil {
			return err
		}
		if uint64(offset)+uint64(len(values)) >= uint64(d.Size) {
			return blockOutOfRange(addr, uint32(len(values)), d)
		}

		for _, v := range values {
			v := v
			if err := guard(d.Base+offset, func() { d.window.Store(offset, v) }); err != nil {
				return err
			}
			if mode == transport.Incremental {
				offset++
			}
		}
		return nil
	})
}

// RMWBits replaces the word at addr with (word & and) | or. The returned word
// holds the value read back after the write and becomes valid at the next
// Dispatch.
func (c *Client) RMWBits(addr uint32, and uint32, or uint32) (*transport.ValWord, error) {
	return c.readModifyWrite(addr, func(v uint32) uint32 {
		return (v & and) | or
	})
}

// RMWSum adds addend to the word at addr, wrapping on overflow. The returned
// word holds the value read back after the write and becomes valid at the
// next Dispatch.
func (c *Client) RMWSum(addr uint32, addend int32) (*transport.ValWord, error) {
	return c.readModifyWrite(addr, func(v uint32) uint32 {
		return v + uint32(addend)
	})
}

func (c *Client) readModifyWrite(addr uint32, modify func(uint32) uint32) (*transport.ValWord, error) {
	var w *transport.ValWord
	err := c.exec(func() error {
		d, offset, err := c.locate(addr)
		if err != nil {
			return err
		}

		var v uint32
		if err := guard(addr, func() { v = d.window.Load(offset) }); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		v = modify(v)
		if err := guard(addr, func() { d.window.Store(offset, v) }); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if err := guard(addr, func() { v = d.window.Load(offset) }); err != nil {
			return fmt.Errorf("read-back: %w", err)
		}

		w = transport.NewValWord(v, 0xFFFFFFFF)
		c.pending.add(w)
		c.primeDispatch()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ByteOrderTransaction is not supported by UIO.
func (c *Client) ByteOrderTransaction() error {
	log.Debug("Byte Order Transaction")
	return &transport.UnimplementedFunctionError{
		Transport: TransportID,
		Function:  "ByteOrderTransaction",
	}
}
