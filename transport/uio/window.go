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
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// WordSize is the size of a register in bytes.
const WordSize = 4

// Window is a fixed-size view of 32-bit words. Offsets are in words and
// must be checked by the caller.
type Window interface {
	Len() uint32
	Load(off uint32) uint32
	Store(off uint32, value uint32)
	Close() error
}

type mappedWindow struct {
	path  string
	file  *os.File
	mem   []byte
	words []uint32
}

// MapWindow maps size words of map index of the device node at path. UIO
// exposes map N at offset N pages of its device node.
func MapWindow(path string, index int, size uint32) (Window, error) {
	if size == 0 {
		return nil, fmt.Errorf("failed to map %s: empty window", path)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}

	offset := int64(index) * int64(unix.Getpagesize())
	mem, err := unix.Mmap(
		int(file.Fd()),
		offset,
		int(size)*WordSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap %s (map %d, %d words): %v", path, index, size, err)
	}

	if debug {
		log.Debugf("Mapped %s map %d: %d bytes", path, index, len(mem))
	}

	return &mappedWindow{
		path:  path,
		file:  file,
		mem:   mem,
		words: unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), size),
	}, nil
}

func (w *mappedWindow) Len() uint32 {
	return uint32(len(w.words))
}

func (w *mappedWindow) Load(off uint32) uint32 {
	return atomic.LoadUint32(&w.words[off])
}

func (w *mappedWindow) Store(off uint32, value uint32) {
	atomic.StoreUint32(&w.words[off], value)
}

func (w *mappedWindow) Close() error {
	if w.mem == nil {
		return nil
	}
	log.Debugf("Unmapping %s", w.path)

	w.words = nil
	err := unix.Munmap(w.mem)
	w.mem = nil
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type memoryWindow struct {
	words []uint32
}

// NewMemoryWindow returns a window backed by words. The slice is used in
// place, so the caller can preload or inspect register contents.
func NewMemoryWindow(words []uint32) Window {
	return &memoryWindow{words: words}
}

func (w *memoryWindow) Len() uint32 {
	return uint32(len(w.words))
}

func (w *memoryWindow) Load(off uint32) uint32 {
	return atomic.LoadUint32(&w.words[off])
}

func (w *memoryWindow) Store(off uint32, value uint32) {
	atomic.StoreUint32(&w.words[off], value)
}

func (w *memoryWindow) Close() error {
	return nil
}
