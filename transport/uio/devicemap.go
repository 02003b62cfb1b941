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
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DeviceConfig describes a device window to be mapped by Connect.
type DeviceConfig struct {
	// Name identifies the device.
	Name string
	// Base is the first logical word address of the window.
	Base uint32
	// Size is the window size in words. Zero reads it from sysfs.
	Size uint32
	// Path is the device node. Empty looks up the UIO device named UIO.
	Path string
	// UIO is the sysfs name of the device, defaults to Name.
	UIO string
	// Map selects the UIO map of the device.
	Map int
}

type deviceMap struct {
	XMLName xml.Name      `xml:"devices"`
	Devices []deviceEntry `xml:"device"`
}

type deviceEntry struct {
	ID      string `xml:"id,attr"`
	Address string `xml:"address,attr"`
	Size    string `xml:"size,attr"`
	Path    string `xml:"path,attr"`
	UIO     string `xml:"uio,attr"`
	Map     int    `xml:"map,attr"`
}

// ReadDeviceMapFile reads device configurations from an XML file.
func ReadDeviceMapFile(filename string) ([]DeviceConfig, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open device map: %v", err)
	}
	defer f.Close()

	configs, err := ReadDeviceMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return configs, nil
}

// ReadDeviceMap reads device configurations from XML.
func ReadDeviceMap(r io.Reader) ([]DeviceConfig, error) {
	var m deviceMap
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode device map: %v", err)
	}

	configs := make([]DeviceConfig, 0, len(m.Devices))
	for i, e := range m.Devices {
		if e.ID == "" {
			return nil, fmt.Errorf("device #%d: missing id", i)
		}
		base, err := parseWord(e.Address)
		if err != nil {
			return nil, fmt.Errorf("device %s: bad address: %v", e.ID, err)
		}
		var size uint32
		if e.Size != "" {
			if size, err = parseWord(e.Size); err != nil {
				return nil, fmt.Errorf("device %s: bad size: %v", e.ID, err)
			}
		}
		if e.Map < 0 {
			return nil, fmt.Errorf("device %s: bad map index %d", e.ID, e.Map)
		}
		configs = append(configs, DeviceConfig{
			Name: e.ID,
			Base: base,
			Size: size,
			Path: e.Path,
			UIO:  e.UIO,
			Map:  e.Map,
		})
	}
	return configs, nil
}

func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	return uint32(v), err
}

// FindUIO returns the device node of the UIO device whose sysfs name is
// label.
func FindUIO(sysfsRoot, devRoot, label string) (string, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return "", fmt.Errorf("failed to list UIO devices: %v", err)
	}
	for _, e := range entries {
		name, err := os.ReadFile(filepath.Join(sysfsRoot, e.Name(), "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(name)) == label {
			return filepath.Join(devRoot, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no UIO device named %q in %s", label, sysfsRoot)
}

// MapSize returns the size in words of map index of the UIO device uio.
func MapSize(sysfsRoot, uio string, index int) (uint32, error) {
	file := filepath.Join(sysfsRoot, uio, "maps", fmt.Sprintf("map%d", index), "size")
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, fmt.Errorf("failed to read map size: %v", err)
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(string(data)), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad map size in %s: %v", file, err)
	}
	words := bytes / WordSize
	if words == 0 || words > math.MaxUint32 {
		return 0, fmt.Errorf("unusable map size %#x in %s", bytes, file)
	}
	return uint32(words), nil
}

// openDevice finds, sizes and maps the window described by cfg.
func (c *Client) openDevice(cfg DeviceConfig) (*Device, error) {
	path := cfg.Path
	if path == "" {
		label := cfg.UIO
		if label == "" {
			label = cfg.Name
		}
		var err error
		if path, err = FindUIO(c.sysfsRoot, c.devRoot, label); err != nil {
			return nil, fmt.Errorf("device %s: %w", cfg.Name, err)
		}
	}

	size := cfg.Size
	if size == 0 {
		var err error
		if size, err = MapSize(c.sysfsRoot, filepath.Base(path), cfg.Map); err != nil {
			return nil, fmt.Errorf("device %s: %w", cfg.Name, err)
		}
	}

	w, err := MapWindow(path, cfg.Map, size)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", cfg.Name, err)
	}
	log.Debugf("Mapped device %s at 0x%08X (%d words) from %s", cfg.Name, cfg.Base, size, path)

	return &Device{
		Name:   cfg.Name,
		Base:   cfg.Base,
		Size:   size,
		Path:   path,
		window: w,
		owned:  true,
	}, nil
}
