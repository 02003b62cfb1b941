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

// Package transport defines the contract between the register access
// framework and the transports that move words to and from hardware.
//
// A transport does not hand results back immediately. Reads return a
// ValWord or ValVector that only becomes valid once the framework reaches a
// dispatch point. A transport announces pending results through the prime
// callback, and the framework answers with exactly one Dispatch call per
// priming.
//
// Transports register themselves under an identifier with Register, usually
// from an init function, so that they can be created from a URI of the form
// "identifier://target" without compile-time linkage:
//
//	import _ "github.com/tswilliams/UIOuHAL/transport/uio"
//
//	t, err := transport.New("uioaxi-1.0:///etc/uiouhal/devices.xml")
package transport

// BlockMode selects how the word offset moves during block transfers.
type BlockMode int

const (
	// Incremental advances the offset by one word per element.
	Incremental BlockMode = iota
	// NonIncremental accesses the same word repeatedly, as used for FIFOs.
	NonIncremental
)

func (m BlockMode) String() string {
	switch m {
	case Incremental:
		return "INCREMENTAL"
	case NonIncremental:
		return "NON_INCREMENTAL"
	}
	return "UNKNOWN"
}

// PrimeCallback is called by a transport when results are waiting for the
// next dispatch.
type PrimeCallback func()

// Transport moves 32-bit words between the client and the hardware.
type Transport interface {
	// Connect prepares the transport for use.
	Connect() error
	// Disconnect releases everything acquired by Connect.
	Disconnect() error

	// SetPrimeCallback sets the callback invoked when results are pending.
	SetPrimeCallback(cb PrimeCallback)

	// Read reads one word. The result is valid after the next Dispatch.
	Read(addr uint32, mask uint32) (*ValWord, error)
	// Write writes one word.
	Write(addr uint32, value uint32) error
	// ReadBlock reads count words. The result is valid after the next Dispatch.
	ReadBlock(addr uint32, count uint32, mode BlockMode) (*ValVector, error)
	// WriteBlock writes values.
	WriteBlock(addr uint32, values []uint32, mode BlockMode) error
	// RMWBits replaces the word with (word & and) | or and returns the
	// read-back value.
	RMWBits(addr uint32, and uint32, or uint32) (*ValWord, error)
	// RMWSum adds addend to the word and returns the read-back value.
	RMWSum(addr uint32, addend int32) (*ValWord, error)
	// ByteOrderTransaction performs a byte-order transaction.
	ByteOrderTransaction() error

	// Dispatch validates every result produced since the previous Dispatch.
	Dispatch() error
	// Validate checks raw send and reply buffers after a dispatch.
	Validate(send []byte, replies [][]byte) error
}
