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

// Package core binds a register transport to the batched dispatch model.
//
// Every read-like operation of a transport produces a result that becomes
// valid only at the next dispatch. A Connection listens for the transport's
// prime notifications and forwards Dispatch to the transport once per
// priming, so callers may call Dispatch freely.
package core

import (
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tswilliams/UIOuHAL/transport"
)

var (
	debug = strings.Contains(os.Getenv("DEBUG_UIOUHAL"), "core")

	log logrus.FieldLogger
)

// SetLogger sets global logger.
func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

func init() {
	logger := logrus.New()
	if debug {
		logger.Level = logrus.DebugLevel
		logger.Debug("uiouhal: debug level enabled for core")
	}
	log = logger.WithField("logger", "uiouhal/core")
}

// ErrDisconnected is returned for operations on a closed connection.
var ErrDisconnected = errors.New("connection is disconnected")

// Connection is a connected register transport.
type Connection struct {
	transport transport.Transport

	primed     atomic.Bool
	dispatchMu sync.Mutex

	closeOnce sync.Once
	closed    atomic.Bool
}

// Connect connects t and returns the Connection using it.
func Connect(t transport.Transport) (*Connection, error) {
	if t == nil {
		return nil, errors.New("nil transport")
	}
	c := &Connection{transport: t}
	t.SetPrimeCallback(c.prime)

	if err := t.Connect(); err != nil {
		log.Debugf("connecting transport failed: %v", err)
		return nil, err
	}
	log.Debugf("connection established")
	return c, nil
}

// Disconnect disconnects the transport. Results not yet dispatched never
// become valid.
func (c *Connection) Disconnect() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if err := c.transport.Disconnect(); err != nil {
			log.Warnf("disconnecting transport failed: %v", err)
		}
	})
}

// Transport returns the underlying transport.
func (c *Connection) Transport() transport.Transport {
	return c.transport
}

func (c *Connection) prime() {
	if debug && !c.primed.Load() {
		log.Debug("dispatch primed")
	}
	c.primed.Store(true)
}

// Primed reports whether results are waiting for Dispatch.
func (c *Connection) Primed() bool {
	return c.primed.Load()
}

// Dispatch makes every result produced since the previous dispatch valid.
// The transport is only dispatched if it primed since then.
func (c *Connection) Dispatch() error {
	if c.closed.Load() {
		return ErrDisconnected
	}
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	if !c.primed.Swap(false) {
		return nil
	}
	if err := c.transport.Dispatch(); err != nil {
		return err
	}
	return c.transport.Validate(nil, nil)
}

// Read queues a masked read of the word at addr.
func (c *Connection) Read(addr uint32, mask uint32) (*transport.ValWord, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	return c.transport.Read(addr, mask)
}

// Write writes value to the word at addr.
func (c *Connection) Write(addr uint32, value uint32) error {
	if c.closed.Load() {
		return ErrDisconnected
	}
	return c.transport.Write(addr, value)
}

// ReadBlock queues a read of count words starting at addr.
func (c *Connection) ReadBlock(addr uint32, count uint32, mode transport.BlockMode) (*transport.ValVector, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	return c.transport.ReadBlock(addr, count, mode)
}

// WriteBlock writes values starting at addr.
func (c *Connection) WriteBlock(addr uint32, values []uint32, mode transport.BlockMode) error {
	if c.closed.Load() {
		return ErrDisconnected
	}
	return c.transport.WriteBlock(addr, values, mode)
}

// RMWBits replaces the word at addr with (word & and) | or.
func (c *Connection) RMWBits(addr uint32, and uint32, or uint32) (*transport.ValWord, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	return c.transport.RMWBits(addr, and, or)
}

// RMWSum adds addend to the word at addr.
func (c *Connection) RMWSum(addr uint32, addend int32) (*transport.ValWord, error) {
	if c.closed.Load() {
		return nil, ErrDisconnected
	}
	return c.transport.RMWSum(addr, addend)
}

// ByteOrderTransaction runs a byte-order check on transports that have one.
func (c *Connection) ByteOrderTransaction() error {
	if c.closed.Load() {
		return ErrDisconnected
	}
	return c.transport.ByteOrderTransaction()
}
