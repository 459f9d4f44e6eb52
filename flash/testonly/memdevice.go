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

// Package testonly provides support for flash tests.
package testonly

import (
	"fmt"
	"testing"

	"github.com/secure-foundries/mcu-core/flash"
)

// MemDevice is a simple in-memory page device.
type MemDevice struct {
	Pages [][flash.PageSize]byte

	// OnPageWritten is called just after a page has been written or erased.
	OnPageWritten func(n uint32)
}

// NewMemDevice creates an in-memory page device with every page erased.
func NewMemDevice(t *testing.T, numPages uint32) *MemDevice {
	t.Helper()
	d := &MemDevice{Pages: make([][flash.PageSize]byte, numPages)}
	for i := range d.Pages {
		for j := range d.Pages[i] {
			d.Pages[i][j] = flash.ErasedByte
		}
	}
	return d
}

// NumPages returns the device capacity in pages.
func (d *MemDevice) NumPages() uint32 {
	return uint32(len(d.Pages))
}

// ReadPage reads page n into p.
func (d *MemDevice) ReadPage(n uint32, p []byte) error {
	if err := d.check(n, p); err != nil {
		return err
	}
	copy(p, d.Pages[n][:])
	return nil
}

// WritePage writes p to page n.
func (d *MemDevice) WritePage(n uint32, p []byte) error {
	if err := d.check(n, p); err != nil {
		return err
	}
	copy(d.Pages[n][:], p)
	if d.OnPageWritten != nil {
		d.OnPageWritten(n)
	}
	return nil
}

// ErasePage resets page n to the erased state.
func (d *MemDevice) ErasePage(n uint32) error {
	erased := make([]byte, flash.PageSize)
	for i := range erased {
		erased[i] = flash.ErasedByte
	}
	return d.WritePage(n, erased)
}

func (d *MemDevice) check(n uint32, p []byte) error {
	if n >= d.NumPages() {
		return fmt.Errorf("page %d out of range (device has %d pages)", n, d.NumPages())
	}
	if len(p) != flash.PageSize {
		return fmt.Errorf("buffer length %d, expected page size %d", len(p), flash.PageSize)
	}
	return nil
}
