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

// Package uiouhal provides word-level access to memory-mapped hardware
// registers through pluggable transports.
package uiouhal

import (
	"github.com/tswilliams/UIOuHAL/core"
	"github.com/tswilliams/UIOuHAL/internal/version"
	"github.com/tswilliams/UIOuHAL/transport"
	_ "github.com/tswilliams/UIOuHAL/transport/uio"
)

// Connect connects to a device using a new transport created with NewTransport.
//
// This call blocks until every device window is mapped, or an error occurs.
//
// The uri parameter has the form "identifier://target":
//   - "uioaxi-1.0:///path/to/devices.xml" - UIO devices listed in a device map
func Connect(uri string) (*core.Connection, error) {
	t, err := NewTransport(uri)
	if err != nil {
		return nil, err
	}
	return core.Connect(t)
}

// NewTransport returns a new transport instance for uri, selected by the
// identifier the transport registered under.
var NewTransport = func(uri string) (transport.Transport, error) {
	return transport.New(uri)
}

// Version returns version of UIOuHAL.
func Version() string {
	return version.Version()
}
