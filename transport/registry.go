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
	"sort"
	"strings"
	"sync"
)

// SchemeSeparator separates the transport identifier from its target.
const SchemeSeparator = "://"

// Factory creates a transport for target, the part of the URI after
// the identifier and SchemeSeparator.
type Factory func(target string) (Transport, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a transport available under id. It panics if id is empty,
// if f is nil or if id is already registered.
func Register(id string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if id == "" || strings.Contains(id, SchemeSeparator) {
		panic(fmt.Sprintf("transport: invalid identifier %q", id))
	}
	if f == nil {
		panic("transport: Register factory is nil for " + id)
	}
	if _, dup := factories[id]; dup {
		panic("transport: Register called twice for " + id)
	}
	factories[id] = f
}

// Identifiers returns the sorted identifiers of all registered transports.
func Identifiers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	ids := make([]string, 0, len(factories))
	for id := range factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseURI splits uri into transport identifier and target.
func ParseURI(uri string) (id string, target string, err error) {
	n := strings.Index(uri, SchemeSeparator)
	if n <= 0 {
		return "", "", fmt.Errorf("invalid transport URI %q: expected identifier%starget", uri, SchemeSeparator)
	}
	return uri[:n], uri[n+len(SchemeSeparator):], nil
}

// New creates a transport from uri using the registered factory.
func New(uri string) (Transport, error) {
	id, target, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[id]
	factoriesMu.RUnlock()
	if !ok {
		return nil, &UnknownTransportError{ID: id}
	}
	return f(target)
}
