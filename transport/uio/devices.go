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
	"sort"
)

// Device is one memory-mapped window in the logical address space.
type Device struct {
	// Name identifies the device in logs and errors.
	Name string
	// Base is the first logical word address of the window.
	Base uint32
	// Size is the number of words in the window.
	Size uint32
	// Path is the mapped device node, empty for attached windows.
	Path string

	window Window
	owned  bool
}

// End returns the first logical address past the window.
func (d *Device) End() uint64 {
	return uint64(d.Base) + uint64(d.Size)
}

func (d *Device) String() string {
	return fmt.Sprintf("%s [0x%08X, 0x%08X)", d.Name, d.Base, d.End())
}

// Registry holds devices sorted by base address.
type Registry struct {
	devices []*Device
	sealed  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// upperBound returns the index of the first device with a base above addr.
func (r *Registry) upperBound(addr uint32) int {
	return sort.Search(len(r.devices), func(i int) bool {
		return r.devices[i].Base > addr
	})
}

// Add inserts d keeping the registry sorted. Windows must not overlap.
func (r *Registry) Add(d *Device) error {
	if r.sealed {
		return ErrRegistrySealed
	}
	if d.Size == 0 {
		return fmt.Errorf("device %s: empty window", d.Name)
	}
	if d.window != nil && d.window.Len() < d.Size {
		return fmt.Errorf("device %s: window holds %d words, need %d", d.Name, d.window.Len(), d.Size)
	}

	i := r.upperBound(d.Base)
	if i > 0 {
		if prev := r.devices[i-1]; prev.End() > uint64(d.Base) {
			return &OverlapError{Device: d.String(), Other: prev.String()}
		}
	}
	if i < len(r.devices) {
		if next := r.devices[i]; d.End() > uint64(next.Base) {
			return &OverlapError{Device: d.String(), Other: next.String()}
		}
	}

	r.devices = append(r.devices, nil)
	copy(r.devices[i+1:], r.devices[i:])
	r.devices[i] = d
	return nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.sealed = true
}

// Resolve finds the device with the greatest base not exceeding addr and
// returns it with the word offset of addr inside it. The offset is not
// checked against the device size.
func (r *Registry) Resolve(addr uint32) (*Device, uint32, error) {
	i := r.upperBound(addr)
	if i == 0 {
		return nil, 0, &DeviceOutOfRangeError{Addr: addr}
	}
	d := r.devices[i-1]
	return d, addr - d.Base, nil
}

// Len returns the number of devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// Devices returns copies of the device descriptors in address order.
func (r *Registry) Devices() []Device {
	out := make([]Device, len(r.devices))
	for i, d := range r.devices {
		out[i] = Device{Name: d.Name, Base: d.Base, Size: d.Size, Path: d.Path}
	}
	return out
}

// Close releases the windows mapped by the registry's owner.
func (r *Registry) Close() error {
	var firstErr error
	for _, d := range r.devices {
		if !d.owned {
			continue
		}
		if err := d.window.Close(); err != nil {
			log.Debugf("Failed to unmap %s: %v", d, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
