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

// Package pds parses the Platform Descriptor Store (PDS) binary format,
// which stores platform-level data as a linked list of UUID-typed
// descriptors with variable-size payloads inside a flat buffer.
//
// The parser is defensive: the store may be corruption- or
// attacker-controlled, so every malformed input is reported as an error
// value and never as a panic. Descriptors returned by the walker reference
// the caller's buffer and are valid only while that buffer is unmodified.
package pds

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/coreos/go-semver/semver"
)

const (
	// Magic is the PDS header tag, "PDS1" in little-endian ASCII.
	Magic = 0x50445331

	// HeaderVersion is the minimum supported header format version.
	HeaderVersion = 1

	// HeaderSize is the width of the fixed v1 header structure in bytes.
	HeaderSize = 148

	// DescriptorHeaderSize is the width of the fixed v1 descriptor header
	// structure in bytes.
	DescriptorHeaderSize = 32

	// DefaultMaxDescriptors bounds chain traversal when the caller does
	// not supply its own cap.
	DefaultMaxDescriptors = 32

	// crcStartOffset is where header CRC coverage begins, just past the
	// magic, header_size and header_crc fields.
	crcStartOffset = 12
)

// Header is the fixed-layout structure at the front of a PDS buffer.
// All fields are little-endian and 4-byte aligned.
type Header struct {
	// Magic must equal Magic ("PDS1").
	Magic uint32
	// HeaderSize is the total header width in bytes, >= HeaderSize.
	HeaderSize uint32
	// HeaderCRC is a CRC-32/CKSUM over buffer bytes [12, HeaderSize).
	HeaderCRC uint32
	// Version is the header format version, >= HeaderVersion.
	Version uint32
	// FirstDescriptorOffset locates the first descriptor, 0 if none.
	FirstDescriptorOffset uint32
	// VersionString is an advisory NUL-terminated UTF-8 string.
	VersionString [128]byte
}

// VersionInfo returns the advisory version string with trailing NULs
// removed.
func (h *Header) VersionInfo() string {
	s := h.VersionString[:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// SemVer parses the advisory version string as a semantic version.
func (h *Header) SemVer() (*semver.Version, error) {
	return semver.NewVersion(h.VersionInfo())
}

// Bytes serializes the header in its on-storage layout.
func (h *Header) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, h)
	return buf.Bytes()
}

// ValidateHeader checks the fixed header at the front of data and returns
// it by value on success. Validation short-circuits on the first failure:
// buffer width, magic, version, header size, then CRC.
func ValidateHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrBufferTooSmall
	}

	header := &Header{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to decode header: %v", err)
	}

	if header.Magic != Magic {
		return nil, &MagicError{Found: header.Magic, Expected: Magic}
	}

	if header.Version < HeaderVersion {
		return nil, &VersionError{Found: header.Version, Expected: HeaderVersion}
	}

	if header.HeaderSize < HeaderSize {
		return nil, &HeaderSizeError{Found: header.HeaderSize, Expected: HeaderSize}
	}

	if uint64(header.HeaderSize) > uint64(len(data)) {
		return nil, ErrBufferTooSmall
	}

	computed := crc32Cksum(data[crcStartOffset:header.HeaderSize])
	if computed != header.HeaderCRC {
		return nil, &CRCError{Found: header.HeaderCRC, Computed: computed}
	}

	return header, nil
}

// crcPoly is the CRC-32/CKSUM polynomial.
const crcPoly = 0x04c11db7

// crc32Cksum computes the non-reflected, MSB-first CRC-32 variant used for
// header integrity: polynomial 0x04C11DB7, initial value 0, no final XOR.
func crc32Cksum(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
