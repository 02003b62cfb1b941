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
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned for accesses outside Connect/Disconnect.
	ErrNotConnected = errors.New("not connected")
	// ErrRegistrySealed is returned when devices are added after Connect.
	ErrRegistrySealed = errors.New("device registry is sealed")
	// ErrBlockTooLarge is returned for block reads above the client's limit.
	ErrBlockTooLarge = errors.New("block too large")
)

// DeviceOutOfRangeError is returned when an address is not covered by a
// mapped device window.
type DeviceOutOfRangeError struct {
	// Addr is the offending logical address, the first word of a block.
	Addr uint32
	// Words is the length of a rejected block, zero for single words.
	Words uint32
	// Mapped is false when no device starts at or below Addr.
	Mapped bool
	// Device, Base and End describe the window [Base, End) Addr resolved to.
	Device string
	Base   uint32
	End    uint64
}

func (e *DeviceOutOfRangeError) Error() string {
	if !e.Mapped {
		return fmt.Sprintf("Address (0x%08X) precedes every mapped device", e.Addr)
	}
	if e.Words > 0 {
		return fmt.Sprintf("Block (0x%08X, %d words) out of mapped range: 0x%08X to 0x%08X (device %s)",
			e.Addr, e.Words, e.Base, e.End, e.Device)
	}
	return fmt.Sprintf("Address (0x%08X) out of mapped range: 0x%08X to 0x%08X (device %s)",
		e.Addr, e.Base, e.End, e.Device)
}

// IsDeviceOutOfRange reports whether err is, or wraps, a *DeviceOutOfRangeError.
func IsDeviceOutOfRange(err error) bool {
	var oor *DeviceOutOfRangeError
	return errors.As(err, &oor)
}

// OverlapError is returned when two device windows share addresses.
type OverlapError struct {
	Device, Other string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("device %s overlaps device %s in the logical address space", e.Device, e.Other)
}
