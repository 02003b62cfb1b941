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
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	debug = strings.Contains(os.Getenv("DEBUG_UIOUHAL"), "sigbus")

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
		logger.Debug("uiouhal: debug level enabled for sigbus")
	}
	log = logger.WithField("logger", "uiouhal/sigbus")
}

// platform is the OS facility behind a guard session.
type platform interface {
	// installHandler routes SIGBUS raised by the calling goroutine into a
	// recoverable fault panic and returns a func restoring the previous
	// routing.
	installHandler() (restore func(), err error)
	// openFaultMask replaces the calling thread's signal mask with one that
	// blocks everything except SIGKILL, SIGSTOP, SIGINT and SIGBUS. It reports
	// whether SIGBUS was blocked in the replaced mask.
	openFaultMask() (restore func() error, wasBlocked bool, err error)
	// blockFault blocks or unblocks SIGBUS on the calling thread.
	blockFault(block bool) error
}

var (
	// sessionMu is held for the whole lifetime of an armed guard. The
	// installed handler and the recovery point are process-wide.
	sessionMu sync.Mutex

	sys platform = hostPlatform{}
)

// faultError is the shape of the runtime panic raised for a memory fault
// while panic-on-fault is enabled.
type faultError interface {
	error
	Addr() uintptr
}

// Do arms a guard, runs access, and disarms the guard.
//
// If SIGBUS is received while access runs, access is abandoned at the
// faulting statement and Do returns a *BusFaultError carrying msg. Setup
// failures are returned before access runs and wrap one of
// ErrSignalHandlerNotRegistered, ErrSignalMaskingFailure or
// ErrSignalNotBlocked. The previous handler and thread mask are restored on
// every path.
func Do(msg string, access func()) error {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if debug {
		log.Debug("Registering SIGBUS handler")
	}
	restoreHandler, err := sys.installHandler()
	if err != nil {
		log.Errorf("Failed to register SIGBUS handler: %v", err)
		return fmt.Errorf("%w: %v", ErrSignalHandlerNotRegistered, err)
	}
	defer func() {
		restoreHandler()
		if debug {
			log.Debug("Restored original SIGBUS handler")
		}
	}()

	restoreMask, blocked, err := sys.openFaultMask()
	if err != nil {
		log.Errorf("Failed to update signal mask: %v", err)
		return fmt.Errorf("%w: %v", ErrSignalMaskingFailure, err)
	}
	defer func() {
		if err := restoreMask(); err != nil {
			log.Errorf("Failed to restore signal mask after guarded access: %v", err)
		}
	}()
	if !blocked {
		log.Error("SIGBUS must be blocked (by all threads) before arming a guard")
		return ErrSignalNotBlocked
	}

	return run(msg, access)
}

// run is the recovery point of a session.
func run(msg string, access func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fault, ok := r.(faultError)
		if !ok {
			panic(r)
		}
		err = &BusFaultError{Msg: msg, Addr: fault.Addr()}
		if debug {
			log.Debugf("SIGBUS received: %s (fault address %#x)", msg, fault.Addr())
		}
	}()

	access()
	return nil
}

// BlockSignal blocks SIGBUS on the calling thread. The caller pins its
// goroutine with runtime.LockOSThread beforehand, otherwise the scheduler may
// move it to a thread with an unchanged mask.
func BlockSignal() error {
	if err := sys.blockFault(true); err != nil {
		return fmt.Errorf("%w: %v", ErrSignalMaskingFailure, err)
	}
	return nil
}

// UnblockSignal reverts BlockSignal on the calling thread.
func UnblockSignal() error {
	if err := sys.blockFault(false); err != nil {
		return fmt.Errorf("%w: %v", ErrSignalMaskingFailure, err)
	}
	return nil
}
