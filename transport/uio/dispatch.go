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
	"github.com/tswilliams/UIOuHAL/transport"
)

// pendingBuffer holds results waiting for the next dispatch, in creation
// order. It is only touched on the access thread.
type pendingBuffer struct {
	results []transport.Pending
}

func (b *pendingBuffer) add(p transport.Pending) {
	b.results = append(b.results, p)
}

func (b *pendingBuffer) len() int {
	return len(b.results)
}

// dispatch validates every pending result and empties the buffer.
func (b *pendingBuffer) dispatch() int {
	n := len(b.results)
	for _, p := range b.results {
		p.SetValid(true)
	}
	b.results = nil
	return n
}

func (b *pendingBuffer) reset() {
	b.results = nil
}

// primeDispatch tells the framework that results wait for dispatch. The
// framework calls Dispatch once per priming.
func (c *Client) primeDispatch() {
	if c.primeCallback != nil {
		c.primeCallback()
	}
}

// Dispatch marks every result produced since the previous Dispatch valid.
func (c *Client) Dispatch() error {
	return c.exec(func() error {
		n := c.pending.dispatch()
		if debug {
			log.Debugf("UIO: Dispatch (%d results)", n)
		}
		return nil
	})
}

// Validate accepts any buffers; the UIO transport does not use them.
func (c *Client) Validate(send []byte, replies [][]byte) error {
	return nil
}
