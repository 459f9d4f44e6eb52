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
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// DescriptorHeader is the fixed-layout structure at the front of each chain
// entry. All fields are little-endian and 4-byte aligned.
type DescriptorHeader struct {
	// HeaderSize is the descriptor header width in bytes,
	// >= DescriptorHeaderSize.
	HeaderSize uint32
	// PayloadOffset locates the payload, absolute from the buffer start.
	PayloadOffset uint32
	// PayloadSize is the payload width in bytes.
	PayloadSize uint32
	// NextDescriptorOffset locates the next chain entry, 0 if last.
	NextDescriptorOffset uint32
	// DescriptorType identifies the payload format, per RFC 4122.
	DescriptorType uuid.UUID
}

// Bytes serializes the descriptor header in its on-storage layout.
func (d *DescriptorHeader) Bytes() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, d)
	return buf.Bytes()
}

// Descriptor is a parsed chain entry. Payload references the original
// buffer; it is valid only while that buffer is unmodified and alive.
type Descriptor struct {
	// Type identifies the payload format.
	Type uuid.UUID
	// Payload is the descriptor's data, borrowed from the PDS buffer.
	Payload []byte
}

// walkState carries chain traversal bookkeeping shared by the enumeration
// and lookup entry points, so their loop-guard and bounds policies cannot
// diverge.
type walkState struct {
	data  []byte
	next  uint32
	prev  uint32
	count int
	max   int
}

func newWalk(data []byte, header *Header, max int) *walkState {
	return &walkState{data: data, next: header.FirstDescriptorOffset, max: max}
}

// step reads and bounds-checks the descriptor at the current offset,
// including its payload range. It returns nil with a nil error once the
// chain ends.
//
// The loop guard is deliberately forward-only: any offset not strictly
// greater than its predecessor is rejected, which also rules out some
// non-cyclic but out-of-order chains. The check needs no visited-set memory
// and guarantees single-pass termination.
func (w *walkState) step() (*DescriptorHeader, []byte, error) {
	if w.next == 0 {
		return nil, nil, nil
	}

	if w.count >= w.max {
		return nil, nil, ErrMaxDescriptors
	}

	if w.count > 0 && w.next <= w.prev {
		return nil, nil, &LoopError{Offset: w.next}
	}

	offset := uint64(w.next)
	if offset+DescriptorHeaderSize > uint64(len(w.data)) {
		return nil, nil, &DescriptorBoundsError{Offset: w.next}
	}

	desc := &DescriptorHeader{}
	if err := binary.Read(bytes.NewReader(w.data[offset:]), binary.LittleEndian, desc); err != nil {
		return nil, nil, &DescriptorBoundsError{Offset: w.next}
	}

	if desc.HeaderSize < DescriptorHeaderSize {
		return nil, nil, &DescriptorHeaderSizeError{Found: desc.HeaderSize, Expected: DescriptorHeaderSize}
	}

	start := uint64(desc.PayloadOffset)
	if start+uint64(desc.PayloadSize) > uint64(len(w.data)) {
		return nil, nil, &PayloadBoundsError{Offset: desc.PayloadOffset, Size: desc.PayloadSize}
	}

	return desc, w.data[start : start+uint64(desc.PayloadSize)], nil
}

// advance moves past the descriptor returned by the last step call.
func (w *walkState) advance(desc *DescriptorHeader) {
	w.prev = w.next
	w.next = desc.NextDescriptorOffset
	w.count++
}

// ForEachDescriptor walks the descriptor chain of a validated PDS buffer,
// invoking visit for each entry in chain order. visit returns false to stop
// the walk early.
//
// The caller must have validated data with ValidateHeader first. Traversal
// fails after maxDescriptors entries even if the chain is well formed,
// bounding worst-case cost.
func ForEachDescriptor(data []byte, header *Header, maxDescriptors int, visit func(Descriptor) bool) error {
	w := newWalk(data, header, maxDescriptors)

	for {
		desc, payload, err := w.step()
		if err != nil {
			return err
		}
		if desc == nil {
			return nil
		}

		if !visit(Descriptor{Type: desc.DescriptorType, Payload: payload}) {
			return nil
		}

		w.advance(desc)
	}
}

// FindDescriptor returns the payload of the first chain entry whose type
// matches typ. The boolean reports whether a match was found; traversal
// errors are reported even when no match exists before the malformed entry.
//
// The caller must have validated data with ValidateHeader first. Traversal
// is capped at DefaultMaxDescriptors.
func FindDescriptor(data []byte, header *Header, typ uuid.UUID) ([]byte, bool, error) {
	w := newWalk(data, header, DefaultMaxDescriptors)

	for {
		desc, payload, err := w.step()
		if err != nil {
			return nil, false, err
		}
		if desc == nil {
			return nil, false, nil
		}

		if desc.DescriptorType == typ {
			return payload, true, nil
		}

		w.advance(desc)
	}
}
