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

// Package version keeps the version of the UIOuHAL module.
package version

// Version is set at build time with
// -ldflags "-X github.com/tswilliams/UIOuHAL/internal/version.version=..."
var version = "v0.3.0-dev"

// Version returns the module version.
func Version() string {
	return version
}
