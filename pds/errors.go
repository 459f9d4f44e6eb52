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

package pds

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferTooSmall indicates the buffer cannot contain the expected
	// structure.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrMaxDescriptors indicates chain traversal hit the descriptor cap.
	ErrMaxDescriptors = errors.New("maximum descriptor count exceeded")
)

// MagicError indicates the header magic does not match "PDS1".
type MagicError struct {
	Found, Expected uint32
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("invalid magic %#08x, expected %#08x", e.Found, e.Expected)
}

// VersionError indicates the header version is below the minimum supported
// version.
type VersionError struct {
	Found, Expected uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("invalid version %d, expected >= %d", e.Found, e.Expected)
}

// HeaderSizeError indicates the header size field is smaller than the fixed
// header structure.
type HeaderSizeError struct {
	Found, Expected uint32
}

func (e *HeaderSizeError) Error() string {
	return fmt.Sprintf("invalid header size %d, expected >= %d", e.Found, e.Expected)
}

// CRCError indicates the stored header CRC does not match the computed
// value.
type CRCError struct {
	Found, Computed uint32
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("invalid header CRC %#08x, computed %#08x", e.Found, e.Computed)
}

// DescriptorBoundsError indicates a descriptor header extends outside the
// buffer.
type DescriptorBoundsError struct {
	Offset uint32
}

func (e *DescriptorBoundsError) Error() string {
	return fmt.Sprintf("descriptor at offset %#x out of bounds", e.Offset)
}

// DescriptorHeaderSizeError indicates a descriptor's header size field is
// smaller than the fixed descriptor header structure.
type DescriptorHeaderSizeError struct {
	Found, Expected uint32
}

func (e *DescriptorHeaderSizeError) Error() string {
	return fmt.Sprintf("invalid descriptor header size %d, expected >= %d", e.Found, e.Expected)
}

// PayloadBoundsError indicates a descriptor payload extends outside the
// buffer.
type PayloadBoundsError struct {
	Offset, Size uint32
}

func (e *PayloadBoundsError) Error() string {
	return fmt.Sprintf("payload at offset %#x size %d out of bounds", e.Offset, e.Size)
}

// LoopError indicates the descriptor chain pointed backwards or at itself.
// Traversal is forward-only: each descriptor offset must be strictly
// greater than the previous one.
type LoopError struct {
	Offset uint32
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("descriptor chain loop at offset %#x", e.Offset)
}
