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
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var (
	typeA = uuid.MustParse("00000000-0000-4000-8000-00000000000a")
	typeB = uuid.MustParse("00000000-0000-4000-8000-00000000000b")
	typeC = uuid.MustParse("00000000-0000-4000-8000-00000000000c")
)

func mustValidate(t *testing.T, data []byte) *Header {
	t.Helper()
	header, err := ValidateHeader(data)
	if err != nil {
		t.Fatalf("ValidateHeader: %v", err)
	}
	return header
}

// patchNext overwrites the next_descriptor_offset field of the descriptor
// at the given offset.
func patchNext(data []byte, descOffset, next uint32) {
	binary.LittleEndian.PutUint32(data[descOffset+12:], next)
}

func TestForEachDescriptorEnumeratesChain(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
		Descriptor{Type: typeB, Payload: []byte("second")},
		Descriptor{Type: typeC, Payload: []byte("third")},
	)
	header := mustValidate(t, data)

	var got []string
	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(d Descriptor) bool {
		got = append(got, string(d.Payload))
		return true
	})
	if err != nil {
		t.Fatalf("ForEachDescriptor: %v", err)
	}
	if diff := cmp.Diff(got, []string{"first", "second", "third"}); diff != "" {
		t.Fatalf("Got payload diff: %s", diff)
	}
}

func TestForEachDescriptorEmptyChain(t *testing.T) {
	data := buildPDS(t, "1.0.0")
	header := mustValidate(t, data)

	count := 0
	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("ForEachDescriptor: %v", err)
	}
	if count != 0 {
		t.Fatalf("Visited %d descriptors, want 0", count)
	}
}

func TestForEachDescriptorStopsWhenAsked(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
		Descriptor{Type: typeB, Payload: []byte("second")},
	)
	header := mustValidate(t, data)

	count := 0
	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool {
		count++
		return false
	})
	if err != nil {
		t.Fatalf("ForEachDescriptor: %v", err)
	}
	if count != 1 {
		t.Fatalf("Visited %d descriptors, want 1", count)
	}
}

func TestFindDescriptor(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
		Descriptor{Type: typeB, Payload: []byte("second")},
		Descriptor{Type: typeC, Payload: []byte("third")},
	)
	header := mustValidate(t, data)

	for _, test := range []struct {
		typ  uuid.UUID
		want string
	}{
		{typ: typeA, want: "first"},
		{typ: typeB, want: "second"},
		{typ: typeC, want: "third"},
	} {
		payload, ok, err := FindDescriptor(data, header, test.typ)
		if err != nil {
			t.Fatalf("FindDescriptor(%v): %v", test.typ, err)
		}
		if !ok {
			t.Fatalf("FindDescriptor(%v) found nothing", test.typ)
		}
		if got := string(payload); got != test.want {
			t.Errorf("FindDescriptor(%v) = %q, want %q", test.typ, got, test.want)
		}
	}

	unknown := uuid.MustParse("ffffffff-ffff-4fff-8fff-ffffffffffff")
	if _, ok, err := FindDescriptor(data, header, unknown); err != nil || ok {
		t.Fatalf("FindDescriptor(unknown) = ok=%t err=%v, want miss", ok, err)
	}
}

func TestWalkRejectsBackwardChain(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
		Descriptor{Type: typeB, Payload: []byte("second")},
	)
	header := mustValidate(t, data)

	// Point the second descriptor back at the well-formed first one.
	secondOffset := uint32(HeaderSize + DescriptorHeaderSize + len("first"))
	patchNext(data, secondOffset, HeaderSize)

	wantLoop := func(t *testing.T, err error) {
		t.Helper()
		var loopErr *LoopError
		if !errors.As(err, &loopErr) {
			t.Fatalf("Got %v, want LoopError", err)
		}
		if loopErr.Offset != HeaderSize {
			t.Fatalf("LoopError offset = %#x, want %#x", loopErr.Offset, HeaderSize)
		}
	}

	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool { return true })
	wantLoop(t, err)

	_, _, err = FindDescriptor(data, header, uuid.UUID{})
	wantLoop(t, err)
}

func TestWalkRejectsSelfLoop(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
	)
	header := mustValidate(t, data)

	patchNext(data, HeaderSize, HeaderSize)

	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool { return true })
	var loopErr *LoopError
	if !errors.As(err, &loopErr) {
		t.Fatalf("Got %v, want LoopError", err)
	}
}

func TestWalkRejectsOverlongChain(t *testing.T) {
	descriptors := make([]Descriptor, 4)
	for i := range descriptors {
		descriptors[i] = Descriptor{Type: typeA, Payload: []byte{byte(i)}}
	}
	data := buildPDS(t, "1.0.0", descriptors...)
	header := mustValidate(t, data)

	// A cap equal to the chain length passes.
	if err := ForEachDescriptor(data, header, 4, func(Descriptor) bool { return true }); err != nil {
		t.Fatalf("ForEachDescriptor(cap 4): %v", err)
	}

	// One fewer fails, even though every descriptor is well formed.
	err := ForEachDescriptor(data, header, 3, func(Descriptor) bool { return true })
	if !errors.Is(err, ErrMaxDescriptors) {
		t.Fatalf("Got %v, want ErrMaxDescriptors", err)
	}
}

func TestWalkRejectsDescriptorOutOfBounds(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
	)
	header := mustValidate(t, data)

	for _, test := range []struct {
		name string
		next uint32
	}{
		{name: "past the end", next: uint32(len(data))},
		{name: "header straddles the end", next: uint32(len(data) - DescriptorHeaderSize + 1)},
		{name: "offset overflows", next: 0xffffffff},
	} {
		t.Run(test.name, func(t *testing.T) {
			patchNext(data, HeaderSize, test.next)
			err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool { return true })
			var boundsErr *DescriptorBoundsError
			if !errors.As(err, &boundsErr) {
				t.Fatalf("Got %v, want DescriptorBoundsError", err)
			}
			if boundsErr.Offset != test.next {
				t.Fatalf("DescriptorBoundsError offset = %#x, want %#x", boundsErr.Offset, test.next)
			}
		})
	}
}

func TestWalkRejectsPayloadOutOfBounds(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
	)
	header := mustValidate(t, data)

	for _, test := range []struct {
		name         string
		offset, size uint32
	}{
		{name: "size past the end", offset: HeaderSize, size: 0xffff},
		{name: "offset and size overflow", offset: 0xffffffff, size: 0xffffffff},
	} {
		t.Run(test.name, func(t *testing.T) {
			binary.LittleEndian.PutUint32(data[HeaderSize+4:], test.offset)
			binary.LittleEndian.PutUint32(data[HeaderSize+8:], test.size)

			err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool { return true })
			var payloadErr *PayloadBoundsError
			if !errors.As(err, &payloadErr) {
				t.Fatalf("Got %v, want PayloadBoundsError", err)
			}
		})
	}
}

func TestWalkRejectsShortDescriptorHeaderSize(t *testing.T) {
	data := buildPDS(t, "1.0.0",
		Descriptor{Type: typeA, Payload: []byte("first")},
	)
	header := mustValidate(t, data)

	binary.LittleEndian.PutUint32(data[HeaderSize:], DescriptorHeaderSize-1)

	err := ForEachDescriptor(data, header, DefaultMaxDescriptors, func(Descriptor) bool { return true })
	var sizeErr *DescriptorHeaderSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Got %v, want DescriptorHeaderSizeError", err)
	}
	if sizeErr.Found != DescriptorHeaderSize-1 || sizeErr.Expected != DescriptorHeaderSize {
		t.Fatalf("DescriptorHeaderSizeError = %+v", sizeErr)
	}
}
