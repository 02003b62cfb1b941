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

// Package sigbus turns bus errors raised by a single memory-mapped access
// into ordinary Go errors.
//
// # Guard sessions
//
// A register access that touches hardware which does not answer (powered off,
// reserved region, missing AXI slave) makes the kernel deliver SIGBUS to the
// faulting thread. Wrapping the access with Do converts that signal into a
// *BusFaultError carrying the caller's message:
//
//	var v uint32
//	err := sigbus.Do(fmt.Sprintf("Reg: 0x%08X", addr), func() {
//	    v = window.Load(offset)
//	})
//
// Only one session is armed at a time in the whole process. Sessions are
// serialized on a package mutex, so Do is also a global access serializer.
//
// # Signal mask contract
//
// SIGBUS must already be blocked on the thread that calls Do. The guard opens
// the mask for SIGBUS only while the access runs and fails with
// ErrSignalNotBlocked otherwise. A goroutine prepares its thread with:
//
//	runtime.LockOSThread()
//	if err := sigbus.BlockSignal(); err != nil {
//	    // handle error
//	}
//
// # Debugging
//
// Setting DEBUG_UIOUHAL=sigbus enables debug logging of every session.
package sigbus
