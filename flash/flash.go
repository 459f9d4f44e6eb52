// Copyright 2025 The MCU Core authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package flash models the page-oriented virtual flash device consumed by
// platform firmware: a page device abstraction, a file-backed
// implementation for emulation, a mailbox register protocol front end, and
// a byte-range translation layer for callers that do not want to think in
// pages.
package flash

import (
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"
)

const (
	// PageSize is the flash page width in bytes.
	PageSize = 256

	// DefaultNumPages is the page count of a default-sized (64 MiB) device.
	DefaultNumPages = (64 * 1024 * 1024) / PageSize

	// ErasedByte is the value every byte of an erased page reads as.
	ErasedByte = 0xff
)

// Device is a page-oriented flash device. Read and write buffers are always
// exactly one page long.
type Device interface {
	// ReadPage reads page n into p; len(p) must be PageSize.
	ReadPage(n uint32, p []byte) error
	// WritePage writes p to page n; len(p) must be PageSize.
	WritePage(n uint32, p []byte) error
	// ErasePage resets page n to the erased state.
	ErasePage(n uint32) error
	// NumPages returns the device capacity in pages.
	NumPages() uint32
}

// FileDevice is a Device backed by an ordinary file, for emulating flash
// hardware on a host.
type FileDevice struct {
	f        *os.File
	numPages uint32
}

// NewFileDevice opens or creates a file-backed flash device with the given
// page count. A new or undersized file is initialized to the erased state;
// if initial is non-nil the file is reinitialized with initial at offset 0
// and erased bytes after it.
func NewFileDevice(path string, numPages uint32, initial []byte) (*FileDevice, error) {
	if numPages == 0 {
		return nil, fmt.Errorf("flash device must have at least one page")
	}
	capacity := int64(numPages) * PageSize
	if initial != nil && int64(len(initial)) > capacity {
		return nil, fmt.Errorf("initial content (%d bytes) exceeds device capacity (%d bytes)", len(initial), capacity)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if info.Size() < capacity || initial != nil {
		klog.V(1).Infof("Initializing flash file %q (%d pages of %d bytes)", path, numPages, PageSize)
		if err := initFile(f, capacity, initial); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to initialize flash file: %v", err)
		}
	}

	return &FileDevice{f: f, numPages: numPages}, nil
}

// initFile truncates f to capacity and fills it with the initial content
// followed by erased bytes, writing in 1 MiB chunks.
func initFile(f *os.File, capacity int64, initial []byte) error {
	if err := f.Truncate(capacity); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	remaining := capacity
	if len(initial) > 0 {
		if _, err := f.Write(initial); err != nil {
			return err
		}
		remaining -= int64(len(initial))
	}

	chunk := make([]byte, 1024*1024)
	for i := range chunk {
		chunk[i] = ErasedByte
	}
	for remaining > 0 {
		n := int64(len(chunk))
		if n > remaining {
			n = remaining
		}
		if _, err := f.Write(chunk[:n]); err != nil {
			return err
		}
		remaining -= n
	}
	return nil
}

// Close closes the backing file.
func (d *FileDevice) Close() error {
	return d.f.Close()
}

// NumPages returns the device capacity in pages.
func (d *FileDevice) NumPages() uint32 {
	return d.numPages
}

// ReadPage reads page n into p.
func (d *FileDevice) ReadPage(n uint32, p []byte) error {
	if err := d.checkPage(n, p); err != nil {
		return err
	}
	_, err := d.f.ReadAt(p, int64(n)*PageSize)
	return err
}

// WritePage writes p to page n.
func (d *FileDevice) WritePage(n uint32, p []byte) error {
	if err := d.checkPage(n, p); err != nil {
		return err
	}
	_, err := d.f.WriteAt(p, int64(n)*PageSize)
	return err
}

// ErasePage resets page n to the erased state.
func (d *FileDevice) ErasePage(n uint32) error {
	erased := make([]byte, PageSize)
	for i := range erased {
		erased[i] = ErasedByte
	}
	return d.WritePage(n, erased)
}

func (d *FileDevice) checkPage(n uint32, p []byte) error {
	if n >= d.numPages {
		return fmt.Errorf("page %d out of range (device has %d pages)", n, d.numPages)
	}
	if len(p) != PageSize {
		return fmt.Errorf("buffer length %d, expected page size %d", len(p), PageSize)
	}
	return nil
}
