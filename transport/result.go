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

package transport

import (
	"errors"
	"math/bits"
	"sync/atomic"
)

// ErrNotValid is returned when a result is read before its dispatch.
var ErrNotValid = errors.New("result accessed before dispatch")

// Pending is a result waiting for a dispatch point.
type Pending interface {
	SetValid(valid bool)
}

// ValWord is the result of a single-word transaction.
type ValWord struct {
	value uint32
	mask  uint32
	valid atomic.Bool
}

// NewValWord returns a not yet valid word holding value under mask.
func NewValWord(value uint32, mask uint32) *ValWord {
	return &ValWord{value: value, mask: mask}
}

// SetValid sets the validity flag.
func (w *ValWord) SetValid(valid bool) {
	w.valid.Store(valid)
}

// Valid reports whether the word has been dispatched.
func (w *ValWord) Valid() bool {
	return w.valid.Load()
}

// Mask returns the bit mask applied by Value.
func (w *ValWord) Mask() uint32 {
	return w.mask
}

// Value returns the masked word shifted down to the lowest set bit of the
// mask.
func (w *ValWord) Value() (uint32, error) {
	if !w.Valid() {
		return 0, ErrNotValid
	}
	if w.mask == 0 {
		return 0, nil
	}
	return (w.value & w.mask) >> bits.TrailingZeros32(w.mask), nil
}

// ValVector is the result of a block transaction.
type ValVector struct {
	values []uint32
	valid  atomic.Bool
}

// NewValVector returns a not yet valid vector holding values.
func NewValVector(values []uint32) *ValVector {
	return &ValVector{values: values}
}

// SetValid sets the validity flag.
func (v *ValVector) SetValid(valid bool) {
	v.valid.Store(valid)
}

// Valid reports whether the vector has been dispatched.
func (v *ValVector) Valid() bool {
	return v.valid.Load()
}

// Len returns the number of words.
func (v *ValVector) Len() int {
	return len(v.values)
}

// Values returns a copy of the words.
func (v *ValVector) Values() ([]uint32, error) {
	if !v.Valid() {
		return nil, ErrNotValid
	}
	out := make([]uint32, len(v.values))
	copy(out, v.values)
	return out, nil
}
