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

//go:build !linux

package sigbus

import (
	"errors"
	rdebug "runtime/debug"
)

var errUnsupported = errors.New("thread signal masks are only supported on linux")

type hostPlatform struct{}

func (hostPlatform) installHandler() (func(), error) {
	prev := rdebug.SetPanicOnFault(true)
	return func() { rdebug.SetPanicOnFault(prev) }, nil
}

func (hostPlatform) openFaultMask() (func() error, bool, error) {
	return nil, false, errUnsupported
}

func (hostPlatform) blockFault(bool) error {
	return errUnsupported
}
