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
	"fmt"
	"strings"
)

// UnimplementedFunctionError is returned for operations a transport does not
// support.
type UnimplementedFunctionError struct {
	Transport string
	Function  string
}

func (e *UnimplementedFunctionError) Error() string {
	return fmt.Sprintf("%s: function %s() is not implemented", e.Transport, e.Function)
}

// UnknownTransportError is returned by New for an unregistered identifier.
type UnknownTransportError struct {
	ID string
}

func (e *UnknownTransportError) Error() string {
	return fmt.Sprintf("unknown transport %q (registered: %s)", e.ID, strings.Join(Identifiers(), ", "))
}
