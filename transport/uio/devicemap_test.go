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

package uio

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/tswilliams/UIOuHAL/transport"
)

// TestReadDeviceMap tests device map decoding
func TestReadDeviceMap(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []DeviceConfig
		wantErr string
	}{
		{
			name: "all attributes",
			input: `<devices>
  <device id="ctrl" address="0x1000" size="0x10" path="/dev/uio3" map="1"/>
  <device id="status" address="4096" uio="axi-status"/>
</devices>`,
			want: []DeviceConfig{
				{Name: "ctrl", Base: 0x1000, Size: 0x10, Path: "/dev/uio3", Map: 1},
				{Name: "status", Base: 4096, UIO: "axi-status"},
			},
		},
		{
			name:  "empty map",
			input: `<devices></devices>`,
			want:  []DeviceConfig{},
		},
		{
			name:    "missing id",
			input:   `<devices><device address="0x0"/></devices>`,
			wantErr: "missing id",
		},
		{
			name:    "bad address",
			input:   `<devices><device id="a" address="zero"/></devices>`,
			wantErr: "device a: bad address",
		},
		{
			name:    "address too wide",
			input:   `<devices><device id="a" address="0x100000000"/></devices>`,
			wantErr: "device a: bad address",
		},
		{
			name:    "bad size",
			input:   `<devices><device id="a" address="0" size="-1"/></devices>`,
			wantErr: "device a: bad size",
		},
		{
			name:    "negative map",
			input:   `<devices><device id="a" address="0" map="-2"/></devices>`,
			wantErr: "bad map index",
		},
		{
			name:    "not xml",
			input:   `devices`,
			wantErr: "failed to decode",
		},
		{
			name:    "wrong root",
			input:   `<connections/>`,
			wantErr: "failed to decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDeviceMap(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadDeviceMap failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %s, got %s", spew.Sdump(tt.want), spew.Sdump(got))
			}
		})
	}
}

func TestReadDeviceMapFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "devices.xml")
	if err := os.WriteFile(file, []byte(`<devices><device id="a" address="0x10"/></devices>`), 0o644); err != nil {
		t.Fatal(err)
	}

	configs, err := ReadDeviceMapFile(file)
	if err != nil {
		t.Fatalf("ReadDeviceMapFile failed: %v", err)
	}
	if len(configs) != 1 || configs[0].Name != "a" || configs[0].Base != 0x10 {
		t.Errorf("unexpected configs %s", spew.Sdump(configs))
	}

	if _, err := ReadDeviceMapFile(filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// fakeUIO lays out a sysfs tree and device nodes backed by regular files.
type fakeUIO struct {
	sysfs string
	dev   string
}

func newFakeUIO(t *testing.T) *fakeUIO {
	t.Helper()
	root := t.TempDir()
	f := &fakeUIO{
		sysfs: filepath.Join(root, "sys"),
		dev:   filepath.Join(root, "dev"),
	}
	for _, dir := range []string{f.sysfs, f.dev} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

// add creates uioN named label with one map of size bytes.
func (f *fakeUIO) add(t *testing.T, uio, label string, size int) {
	t.Helper()
	mapDir := filepath.Join(f.sysfs, uio, "maps", "map0")
	if err := os.MkdirAll(mapDir, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(file, content string) {
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(f.sysfs, uio, "name"), label+"\n")
	write(filepath.Join(mapDir, "size"), fmt.Sprintf("0x%x\n", size))
	if err := os.WriteFile(filepath.Join(f.dev, uio), make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindUIO(t *testing.T) {
	f := newFakeUIO(t)
	f.add(t, "uio0", "axi-ctrl", 4096)
	f.add(t, "uio1", "axi-status", 4096)

	path, err := FindUIO(f.sysfs, f.dev, "axi-status")
	if err != nil {
		t.Fatalf("FindUIO failed: %v", err)
	}
	if want := filepath.Join(f.dev, "uio1"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	if _, err := FindUIO(f.sysfs, f.dev, "axi-missing"); err == nil {
		t.Error("expected error for unknown device")
	}
	if _, err := FindUIO(filepath.Join(f.sysfs, "nope"), f.dev, "axi-ctrl"); err == nil {
		t.Error("expected error for missing sysfs")
	}
}

func TestMapSize(t *testing.T) {
	f := newFakeUIO(t)
	f.add(t, "uio0", "axi-ctrl", 0x2000)

	size, err := MapSize(f.sysfs, "uio0", 0)
	if err != nil {
		t.Fatalf("MapSize failed: %v", err)
	}
	if size != 0x800 {
		t.Errorf("expected 0x800 words, got %#x", size)
	}

	if _, err := MapSize(f.sysfs, "uio0", 1); err == nil {
		t.Error("expected error for missing map")
	}

	bad := filepath.Join(f.sysfs, "uio0", "maps", "map0", "size")
	for _, content := range []string{"0x2", "garbage"} {
		os.WriteFile(bad, []byte(content), 0o644)
		if _, err := MapSize(f.sysfs, "uio0", 0); err == nil {
			t.Errorf("expected error for size %q", content)
		}
	}
}

// TestConnectUIODevices tests mapping devices found through sysfs
func TestConnectUIODevices(t *testing.T) {
	f := newFakeUIO(t)
	f.add(t, "uio0", "axi-ctrl", 4096)
	f.add(t, "uio1", "axi-status", 4096)

	client := NewClient()
	client.SetSysfsRoot(f.sysfs)
	client.SetDevRoot(f.dev)
	configs := []DeviceConfig{
		{Name: "ctrl", Base: 0x0000, UIO: "axi-ctrl"},
		{Name: "axi-status", Base: 0x1000, Size: 16},
	}
	for _, cfg := range configs {
		if err := client.AddDevice(cfg); err != nil {
			t.Fatalf("AddDevice failed: %v", err)
		}
	}
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Disconnect()

	devices := client.Devices()
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
	if devices[0].Size != 1024 || devices[0].Path != filepath.Join(f.dev, "uio0") {
		t.Errorf("unexpected device %v", devices[0])
	}
	if devices[1].Size != 16 || devices[1].Path != filepath.Join(f.dev, "uio1") {
		t.Errorf("unexpected device %v", devices[1])
	}

	if err := client.Write(0x1003, 0xDEADBEEF); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	w, err := client.Read(0x1003, 0xFFFF0000)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	client.Dispatch()
	if got := mustValue(t, w); got != 0xDEAD {
		t.Errorf("expected 0xDEAD, got %#x", got)
	}

	if err := client.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(f.dev, "uio1"))
	if err != nil {
		t.Fatal(err)
	}
	if got := data[12:16]; !reflect.DeepEqual(got, []byte{0xEF, 0xBE, 0xAD, 0xDE}) && !reflect.DeepEqual(got, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("write not visible in backing file: % x", got)
	}
}

// TestConnectMissingDevice tests that nothing stays mapped after a failure
func TestConnectMissingDevice(t *testing.T) {
	f := newFakeUIO(t)
	f.add(t, "uio0", "axi-ctrl", 4096)

	client := NewClient()
	client.SetSysfsRoot(f.sysfs)
	client.SetDevRoot(f.dev)
	client.AddDevice(DeviceConfig{Name: "axi-ctrl"})
	client.AddDevice(DeviceConfig{Name: "axi-gone", Base: 0x4000})

	err := client.Connect()
	if err == nil {
		client.Disconnect()
		t.Fatal("expected Connect to fail")
	}
	if !strings.Contains(err.Error(), "axi-gone") {
		t.Errorf("expected error naming the device, got %v", err)
	}
	if client.Devices() != nil {
		t.Error("expected no devices after failed Connect")
	}
	if _, err := client.Read(0, 0xFFFFFFFF); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

// TestTransportFactory tests creating a client from a device map URI
func TestTransportFactory(t *testing.T) {
	f := newFakeUIO(t)
	f.add(t, "uio0", "axi-ctrl", 4096)

	file := filepath.Join(t.TempDir(), "devices.xml")
	content := `<devices><device id="ctrl" address="0x100" size="8" path="` + filepath.Join(f.dev, "uio0") + `"/></devices>`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := transport.New(TransportID + "://" + file)
	if err != nil {
		t.Fatalf("transport.New failed: %v", err)
	}
	client, ok := tr.(*Client)
	if !ok {
		t.Fatalf("expected *Client, got %T", tr)
	}
	if len(client.configs) != 1 || client.configs[0].Path != filepath.Join(f.dev, "uio0") {
		t.Errorf("unexpected configs %s", spew.Sdump(client.configs))
	}

	if _, err := transport.New(TransportID + "://"); err == nil {
		t.Error("expected error for empty target")
	}
}
