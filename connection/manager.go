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

// Package connection reads connections files and opens the devices they
// describe.
//
// A connections file names each device and the transport URI used to reach
// it:
//
//	<connections>
//	  <connection id="board.ctrl" uri="uioaxi-1.0:///etc/uiouhal/devices.xml"
//	              address_table="file://ctrl.xml"/>
//	</connections>
package connection

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tswilliams/UIOuHAL/core"
	"github.com/tswilliams/UIOuHAL/transport"
)

var (
	debug = strings.Contains(os.Getenv("DEBUG_UIOUHAL"), "connection")

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
		logger.Debug("uiouhal: debug level enabled for connection")
	}
	log = logger.WithField("logger", "uiouhal/connection")
}

// Entry is one device of a connections file.
type Entry struct {
	ID           string `xml:"id,attr"`
	URI          string `xml:"uri,attr"`
	AddressTable string `xml:"address_table,attr"`
}

type connectionsFile struct {
	XMLName     xml.Name `xml:"connections"`
	Connections []Entry  `xml:"connection"`
}

// UnknownConnectionError is returned for ids not in the connections file.
type UnknownConnectionError struct {
	ID string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("no connection with id %q", e.ID)
}

// Manager opens devices by id.
type Manager struct {
	entries map[string]Entry
	ids     []string
}

// NewManager reads the connections file at path. If allowedSchemes is not
// empty, every connection must use one of those transport identifiers.
func NewManager(path string, allowedSchemes ...string) (*Manager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open connections file: %v", err)
	}
	defer f.Close()

	m, err := ReadManager(f, allowedSchemes...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Loaded %d connections from %s", len(m.ids), path)
	return m, nil
}

// ReadManager reads a connections file from r.
func ReadManager(r io.Reader, allowedSchemes ...string) (*Manager, error) {
	var file connectionsFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode connections: %v", err)
	}

	allowed := make(map[string]bool, len(allowedSchemes))
	for _, s := range allowedSchemes {
		allowed[s] = true
	}

	m := &Manager{entries: make(map[string]Entry, len(file.Connections))}
	for i, e := range file.Connections {
		if e.ID == "" {
			return nil, fmt.Errorf("connection #%d: missing id", i)
		}
		if _, dup := m.entries[e.ID]; dup {
			return nil, fmt.Errorf("connection %s: duplicate id", e.ID)
		}
		scheme, _, err := transport.ParseURI(e.URI)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", e.ID, err)
		}
		if len(allowed) > 0 && !allowed[scheme] {
			return nil, fmt.Errorf("connection %s: transport %s not allowed (allowed: %s)",
				e.ID, scheme, strings.Join(allowedSchemes, ", "))
		}
		m.entries[e.ID] = e
		m.ids = append(m.ids, e.ID)
	}
	sort.Strings(m.ids)
	return m, nil
}

// IDs returns the sorted connection ids.
func (m *Manager) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Match returns the sorted ids matching the regular expression expr.
func (m *Manager) Match(expr string) ([]string, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, id := range m.ids {
		if re.MatchString(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Entry returns the connection with the given id.
func (m *Manager) Entry(id string) (Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, &UnknownConnectionError{ID: id}
	}
	return e, nil
}

// GetDevice creates and connects the transport of connection id.
func (m *Manager) GetDevice(id string) (*core.Connection, error) {
	e, err := m.Entry(id)
	if err != nil {
		return nil, err
	}
	t, err := transport.New(e.URI)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", id, err)
	}
	conn, err := core.Connect(t)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", id, err)
	}
	log.Debugf("Connected %s via %s", id, e.URI)
	return conn, nil
}
