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

// Package otp implements the scrambling and integrity primitives used for
// one-time-programmable (OTP) memory contents: the PRESENT block cipher
// (80-bit and 128-bit key variants) and an iterated-compression digest built
// on it.
//
// All operations work on caller-supplied memory, allocate nothing beyond
// their own fixed-size state, and perform no I/O.
package otp

import "encoding/binary"

// Rounds is the number of PRESENT round keys in a schedule.
const Rounds = 32

// Present is a PRESENT block cipher instance holding a derived round-key
// schedule. A Present is immutable after construction and safe for
// concurrent use.
type Present struct {
	roundKeys [Rounds]uint64
}

// NewPresent80 returns a PRESENT cipher instance for an 80-bit key.
// The key is interpreted least-significant-byte first.
func NewPresent80(key [10]byte) *Present {
	p := &Present{}

	// The 80-bit key register is carried in the top 80 bits of a 128-bit
	// value, split into (hi, lo) uint64 halves.
	var padded [16]byte
	copy(padded[6:], key[:])
	lo := binary.LittleEndian.Uint64(padded[0:8])
	hi := binary.LittleEndian.Uint64(padded[8:16])

	for i := range p.roundKeys {
		// rawKey[0:64]
		p.roundKeys[i] = (lo >> 16) | (hi << 48)

		// 1. Rotate: rawKey[19:] + rawKey[0:19]
		newLo := ((lo & 0x7ffff) << 61) | (lo >> 19) | (hi << 45)
		newHi := ((lo & 0x7ffff) >> 3) | (hi >> 19)
		lo, hi = newLo, newHi

		// 2. SBox on rawKey[76:80]; bits above 76 are masked off.
		hi = (uint64(sBox[(hi>>12)&0xf]) << 12) | (hi & 0x0fff)

		// 3. Salt: rawKey[15:20] ^= round counter
		lo ^= uint64(i+1) << 15
	}

	return p
}

// NewPresent128 returns a PRESENT cipher instance for a 128-bit key.
// The key is interpreted least-significant-byte first.
func NewPresent128(key [16]byte) *Present {
	p := &Present{}

	lo := binary.LittleEndian.Uint64(key[0:8])
	hi := binary.LittleEndian.Uint64(key[8:16])

	for i := range p.roundKeys {
		// rawKey[0:64]
		p.roundKeys[i] = hi

		// 1. Rotate the 128-bit key register left by 61.
		newLo := (lo << 61) | (hi >> 3)
		newHi := (hi << 61) | (lo >> 3)
		lo, hi = newLo, newHi

		// 2. SBox on the top two nibbles.
		hi = (uint64(sBox[hi>>60]) << 60) |
			(uint64(sBox[(hi>>56)&0xf]) << 56) |
			(hi & 0x00ffffffffffffff)

		// 3. Salt: rawKey[62:67] ^= round counter
		lo ^= uint64(i+1) << 62
		hi ^= uint64(i+1) >> 2
	}

	return p
}

// EncryptBlock encrypts a single 64-bit block.
func (p *Present) EncryptBlock(block uint64) uint64 {
	state := block ^ p.roundKeys[0]
	for _, roundKey := range p.roundKeys[1:] {
		state = sBoxLayer(state)
		state = pBoxLayer(state)
		state ^= roundKey
	}
	return state
}

// DecryptBlock decrypts a single 64-bit block, inverting EncryptBlock.
func (p *Present) DecryptBlock(block uint64) uint64 {
	state := block
	for i := Rounds - 1; i > 0; i-- {
		state ^= p.roundKeys[i]
		state = pBoxLayerInv(state)
		state = sBoxLayerInv(state)
	}
	return state ^ p.roundKeys[0]
}

var sBox = [16]uint8{
	0x0c, 0x05, 0x06, 0x0b, 0x09, 0x00, 0x0a, 0x0d, 0x03, 0x0e, 0x0f, 0x08, 0x04, 0x07, 0x01, 0x02,
}

var sBoxInv = [16]uint8{
	0x05, 0x0e, 0x0f, 0x08, 0x0c, 0x01, 0x02, 0x0d, 0x0b, 0x04, 0x06, 0x03, 0x00, 0x07, 0x09, 0x0a,
}

var pBox = [64]uint8{
	0x00, 0x10, 0x20, 0x30, 0x01, 0x11, 0x21, 0x31, 0x02, 0x12, 0x22, 0x32, 0x03, 0x13, 0x23, 0x33,
	0x04, 0x14, 0x24, 0x34, 0x05, 0x15, 0x25, 0x35, 0x06, 0x16, 0x26, 0x36, 0x07, 0x17, 0x27, 0x37,
	0x08, 0x18, 0x28, 0x38, 0x09, 0x19, 0x29, 0x39, 0x0a, 0x1a, 0x2a, 0x3a, 0x0b, 0x1b, 0x2b, 0x3b,
	0x0c, 0x1c, 0x2c, 0x3c, 0x0d, 0x1d, 0x2d, 0x3d, 0x0e, 0x1e, 0x2e, 0x3e, 0x0f, 0x1f, 0x2f, 0x3f,
}

var pBoxInv = [64]uint8{
	0x00, 0x04, 0x08, 0x0c, 0x10, 0x14, 0x18, 0x1c, 0x20, 0x24, 0x28, 0x2c, 0x30, 0x34, 0x38, 0x3c,
	0x01, 0x05, 0x09, 0x0d, 0x11, 0x15, 0x19, 0x1d, 0x21, 0x25, 0x29, 0x2d, 0x31, 0x35, 0x39, 0x3d,
	0x02, 0x06, 0x0a, 0x0e, 0x12, 0x16, 0x1a, 0x1e, 0x22, 0x26, 0x2a, 0x2e, 0x32, 0x36, 0x3a, 0x3e,
	0x03, 0x07, 0x0b, 0x0f, 0x13, 0x17, 0x1b, 0x1f, 0x23, 0x27, 0x2b, 0x2f, 0x33, 0x37, 0x3b, 0x3f,
}

func sBoxLayer(state uint64) uint64 {
	var out uint64
	for i := 0; i < 64; i += 4 {
		out |= uint64(sBox[(state>>i)&0x0f]) << i
	}
	return out
}

func sBoxLayerInv(state uint64) uint64 {
	var out uint64
	for i := 0; i < 64; i += 4 {
		out |= uint64(sBoxInv[(state>>i)&0x0f]) << i
	}
	return out
}

func pBoxLayer(state uint64) uint64 {
	var out uint64
	for i, v := range pBox {
		out |= ((state >> i) & 1) << v
	}
	return out
}

func pBoxLayerInv(state uint64) uint64 {
	var out uint64
	for i, v := range pBoxInv {
		out |= ((state >> i) & 1) << v
	}
	return out
}

