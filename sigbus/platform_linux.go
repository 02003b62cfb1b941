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

//go:build linux

package sigbus

import (
	"errors"
	"os/signal"
	rdebug "runtime/debug"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

type hostPlatform struct{}

func (hostPlatform) installHandler() (func(), error) {
	if signal.Ignored(unix.SIGBUS) {
		return nil, errors.New("SIGBUS is ignored by the process")
	}
	prev := rdebug.SetPanicOnFault(true)
	return func() { rdebug.SetPanicOnFault(prev) }, nil
}

func (hostPlatform) openFaultMask() (func() error, bool, error) {
	var set, old unix.Sigset_t
	sigfillset(&set)
	sigdelset(&set, unix.SIGKILL) // unblockable
	sigdelset(&set, unix.SIGSTOP) // unblockable
	sigdelset(&set, unix.SIGINT)  // Ctrl+C
	sigdelset(&set, unix.SIGBUS)

	if err := unix.PthreadSigmask(sigSetmask, &set, &old); err != nil {
		return nil, false, err
	}
	restore := func() error {
		return unix.PthreadSigmask(sigSetmask, &old, nil)
	}
	return restore, sigismember(&old, unix.SIGBUS), nil
}

func (hostPlatform) blockFault(block bool) error {
	var set unix.Sigset_t
	sigaddset(&set, unix.SIGBUS)
	how := sigBlock
	if !block {
		how = sigUnblock
	}
	return unix.PthreadSigmask(how, &set, nil)
}

// Sigset_t words are 32 or 64 bits wide depending on the architecture.
func sigword(set *unix.Sigset_t, sig syscall.Signal) (int, uint) {
	bits := uint(unsafe.Sizeof(set.Val[0])) * 8
	n := uint(sig) - 1
	return int(n / bits), n % bits
}

func sigaddset(set *unix.Sigset_t, sig syscall.Signal) {
	i, bit := sigword(set, sig)
	set.Val[i] |= 1 << bit
}

func sigdelset(set *unix.Sigset_t, sig syscall.Signal) {
	i, bit := sigword(set, sig)
	set.Val[i] &^= 1 << bit
}

func sigismember(set *unix.Sigset_t, sig syscall.Signal) bool {
	i, bit := sigword(set, sig)
	return set.Val[i]&(1<<bit) != 0
}

func sigfillset(set *unix.Sigset_t) {
	*set = unix.Sigset_t{}
	for i := range set.Val {
		set.Val[i] = ^set.Val[i]
	}
}
