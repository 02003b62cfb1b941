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
	"errors"
	"strings"
	"testing"
)

// nopTransport satisfies Transport for registry tests.
type nopTransport struct {
	target string
}

func (n *nopTransport) Connect() error                 { return nil }
func (n *nopTransport) Disconnect() error              { return nil }
func (n *nopTransport) SetPrimeCallback(PrimeCallback) {}
func (n *nopTransport) Read(uint32, uint32) (*ValWord, error) {
	return NewValWord(0, 0xFFFFFFFF), nil
}
func (n *nopTransport) Write(uint32, uint32) error { return nil }
func (n *nopTransport) ReadBlock(uint32, uint32, BlockMode) (*ValVector, error) {
	return NewValVector(nil), nil
}
func (n *nopTransport) WriteBlock(uint32, []uint32, BlockMode) error { return nil }
func (n *nopTransport) RMWBits(uint32, uint32, uint32) (*ValWord, error) {
	return NewValWord(0, 0xFFFFFFFF), nil
}
func (n *nopTransport) RMWSum(uint32, int32) (*ValWord, error) {
	return NewValWord(0, 0xFFFFFFFF), nil
}
func (n *nopTransport) ByteOrderTransaction() error     { return nil }
func (n *nopTransport) Dispatch() error                 { return nil }
func (n *nopTransport) Validate([]byte, [][]byte) error { return nil }

func init() {
	Register("nop-test", func(target string) (Transport, error) {
		return &nopTransport{target: target}, nil
	})
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

// TestParseURI tests identifier and target extraction
func TestParseURI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantID     string
		wantTarget string
		wantErr    bool
	}{
		{
			name:       "absolute path target",
			uri:        "uioaxi-1.0:///etc/uiouhal/devices.xml",
			wantID:     "uioaxi-1.0",
			wantTarget: "/etc/uiouhal/devices.xml",
		},
		{
			name:       "empty target",
			uri:        "uioaxi-1.0://",
			wantID:     "uioaxi-1.0",
			wantTarget: "",
		},
		{
			name:    "missing separator",
			uri:     "/etc/uiouhal/devices.xml",
			wantErr: true,
		},
		{
			name:    "missing identifier",
			uri:     ":///etc/uiouhal/devices.xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, target, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID || target != tt.wantTarget {
				t.Errorf("ParseURI() = (%q, %q), want (%q, %q)", id, target, tt.wantID, tt.wantTarget)
			}
		})
	}
}

// TestNew tests creation of registered and unknown transports
func TestNew(t *testing.T) {
	tr, err := New("nop-test://somewhere")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if nop, ok := tr.(*nopTransport); !ok || nop.target != "somewhere" {
		t.Errorf("unexpected transport %#v", tr)
	}

	_, err = New("missing-1.0://somewhere")
	var unknown *UnknownTransportError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownTransportError, got %T (%v)", err, err)
	}
	if unknown.ID != "missing-1.0" {
		t.Errorf("expected ID missing-1.0, got %s", unknown.ID)
	}
	if !strings.Contains(err.Error(), "nop-test") {
		t.Errorf("expected registered identifiers in %q", err.Error())
	}
}

// TestRegisterPanics tests registration misuse
func TestRegisterPanics(t *testing.T) {
	f := func(string) (Transport, error) { return &nopTransport{}, nil }

	expectPanic(t, func() { Register("", f) })
	expectPanic(t, func() { Register("bad://id", f) })
	expectPanic(t, func() { Register("nil-factory", nil) })
	expectPanic(t, func() { Register("nop-test", f) })
}

func TestIdentifiers(t *testing.T) {
	found := false
	for _, id := range Identifiers() {
		if id == "nop-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("nop-test missing from %v", Identifiers())
	}
}

func TestUnimplementedFunctionError(t *testing.T) {
	err := &UnimplementedFunctionError{Transport: "uioaxi-1.0", Function: "ByteOrderTransaction"}
	want := "uioaxi-1.0: function ByteOrderTransaction() is not implemented"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
