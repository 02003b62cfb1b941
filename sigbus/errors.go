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

package sigbus

import (
	"errors"
	"fmt"
)

var (
	// ErrSignalNotBlocked is returned when a guard is armed on a thread that
	// does not have SIGBUS blocked.
	ErrSignalNotBlocked = errors.New("SIGBUS must be blocked (by the calling thread) before arming a guard")
	// ErrSignalHandlerNotRegistered is returned when the SIGBUS handler could
	// not be installed.
	ErrSignalHandlerNotRegistered = errors.New("failed to register SIGBUS handler")
	// ErrSignalMaskingFailure is returned when the thread signal mask could
	// not be read or updated.
	ErrSignalMaskingFailure = errors.New("failed to update signal mask")
)

// BusFaultError is returned by Do when SIGBUS was received during the
// guarded access.
type BusFaultError struct {
	// Msg is the message supplied to Do, usually the register address.
	Msg string
	// Addr is the faulting virtual address reported by the runtime.
	Addr uintptr
}

func (e *BusFaultError) Error() string {
	if e.Addr == 0 {
		return fmt.Sprintf("SIGBUS received: %s", e.Msg)
	}
	return fmt.Sprintf("SIGBUS received: %s (fault address %#x)", e.Msg, e.Addr)
}

// IsBusFault reports whether err is, or wraps, a *BusFaultError.
func IsBusFault(err error) bool {
	var bf *BusFaultError
	return errors.As(err, &bf)
}
