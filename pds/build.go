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
	"fmt"

	"github.com/google/uuid"
)

// Builder assembles a version 1 PDS image: a header followed by a chain of
// descriptors laid out back to back, each immediately followed by its
// payload. The zero value is ready to use.
type Builder struct {
	descriptors []Descriptor
	version     string
}

// SetVersionString sets the advisory version string, at most 127 bytes.
func (b *Builder) SetVersionString(s string) error {
	if len(s) >= 128 {
		return fmt.Errorf("version string too long (%d bytes, max 127)", len(s))
	}
	b.version = s
	return nil
}

// AddDescriptor appends a descriptor of the given type. The payload is
// copied when the image is built, not now.
func (b *Builder) AddDescriptor(typ uuid.UUID, payload []byte) {
	b.descriptors = append(b.descriptors, Descriptor{Type: typ, Payload: payload})
}

// Bytes lays out the image and computes the header CRC.
func (b *Builder) Bytes() []byte {
	header := Header{
		Magic:      Magic,
		HeaderSize: HeaderSize,
		Version:    HeaderVersion,
	}
	copy(header.VersionString[:], b.version)

	if len(b.descriptors) > 0 {
		header.FirstDescriptorOffset = HeaderSize
	}

	buf := make([]byte, HeaderSize, b.size())
	for i, d := range b.descriptors {
		offset := len(buf)
		desc := DescriptorHeader{
			HeaderSize:     DescriptorHeaderSize,
			PayloadOffset:  uint32(offset + DescriptorHeaderSize),
			PayloadSize:    uint32(len(d.Payload)),
			DescriptorType: d.Type,
		}
		if i+1 < len(b.descriptors) {
			desc.NextDescriptorOffset = uint32(offset + DescriptorHeaderSize + len(d.Payload))
		}
		buf = append(buf, desc.Bytes()...)
		buf = append(buf, d.Payload...)
	}

	header.HeaderCRC = crc32Cksum(header.Bytes()[crcStartOffset:])
	copy(buf, header.Bytes())

	return buf
}

func (b *Builder) size() int {
	n := HeaderSize
	for _, d := range b.descriptors {
		n += DescriptorHeaderSize + len(d.Payload)
	}
	return n
}
