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

package flash

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Store provides byte-range access on top of a page Device. Reads at any
// offset and length are served page by page; writes that do not cover a
// whole page are read-modify-write; erases are widened to the pages
// containing the range.
type Store struct {
	dev Device

	// page is the scratch page buffer reused across operations.
	page [PageSize]byte
}

// NewStore returns a byte-range store over dev.
func NewStore(dev Device) *Store {
	return &Store{dev: dev}
}

// Size returns the device capacity in bytes.
func (s *Store) Size() int64 {
	return int64(s.dev.NumPages()) * PageSize
}

// checkRange validates [off, off+length) against the device capacity.
func (s *Store) checkRange(off, length int64) error {
	if off < 0 || length < 0 || off+length > s.Size() {
		return fmt.Errorf("range [%d, %d) outside device of %d bytes", off, off+length, s.Size())
	}
	return nil
}

// Read fills b from the byte range starting at off.
func (s *Store) Read(off int64, b []byte) error {
	if err := s.checkRange(off, int64(len(b))); err != nil {
		return err
	}
	klog.V(2).Infof("store: read %d bytes @ %#x", len(b), off)

	for len(b) > 0 {
		page := uint32(off / PageSize)
		in := int(off % PageSize)
		n := PageSize - in
		if n > len(b) {
			n = len(b)
		}

		if err := s.dev.ReadPage(page, s.page[:]); err != nil {
			return fmt.Errorf("failed to read page %d: %v", page, err)
		}
		copy(b[:n], s.page[in:in+n])

		b = b[n:]
		off += int64(n)
	}
	return nil
}

// Write stores b at the byte range starting at off. Partial pages at either
// end of the range are read back first so bytes outside the range are
// preserved.
func (s *Store) Write(off int64, b []byte) error {
	if err := s.checkRange(off, int64(len(b))); err != nil {
		return err
	}
	klog.V(2).Infof("store: write %d bytes @ %#x", len(b), off)

	for len(b) > 0 {
		page := uint32(off / PageSize)
		in := int(off % PageSize)
		n := PageSize - in
		if n > len(b) {
			n = len(b)
		}

		if n < PageSize {
			if err := s.dev.ReadPage(page, s.page[:]); err != nil {
				return fmt.Errorf("failed to read page %d: %v", page, err)
			}
		}
		copy(s.page[in:in+n], b[:n])
		if err := s.dev.WritePage(page, s.page[:]); err != nil {
			return fmt.Errorf("failed to write page %d: %v", page, err)
		}

		b = b[n:]
		off += int64(n)
	}
	return nil
}

// Erase resets every page touched by the byte range [off, off+length) to
// the erased state. The erase is widened to page boundaries: bytes sharing
// a page with the range are erased with it.
func (s *Store) Erase(off, length int64) error {
	if err := s.checkRange(off, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}

	first := uint32(off / PageSize)
	last := uint32((off + length - 1) / PageSize)
	klog.V(2).Infof("store: erase pages [%d, %d]", first, last)

	for page := first; page <= last; page++ {
		if err := s.dev.ErasePage(page); err != nil {
			return fmt.Errorf("failed to erase page %d: %v", page, err)
		}
	}
	return nil
}
