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

package otp

import (
	"encoding/binary"
	"fmt"
)

// Uint128 is a 128-bit value carried as two 64-bit halves. It maps onto a
// PRESENT-128 key in little-endian order: Lo occupies key bytes [0,8), Hi
// bytes [8,16).
type Uint128 struct {
	Lo, Hi uint64
}

// Bytes returns the little-endian 16-byte representation.
func (u Uint128) Bytes() [16]byte {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[0:8], u.Lo)
	binary.LittleEndian.PutUint64(key[8:16], u.Hi)
	return key
}

// Digester computes an OTP integrity digest over a stream of 64-bit blocks
// using a Merkle-Damgard construction with Davies-Meyer compression over
// PRESENT-128. The accumulator starts at the caller-supplied IV; Sum applies
// the finalization step against the caller-supplied 128-bit constant.
//
// See https://docs.opentitan.org/hw/ip/otp_ctrl/doc/index.html#scrambling-datapath
type Digester struct {
	state uint64
	cnst  Uint128

	// pending holds the first block of an incomplete pair.
	pending    uint64
	hasPending bool
}

// NewDigester returns a digester seeded with iv, finalized against cnst.
func NewDigester(iv uint64, cnst Uint128) *Digester {
	return &Digester{state: iv, cnst: cnst}
}

// Write folds one little-endian 64-bit data block into the digest.
func (d *Digester) Write(block uint64) {
	if !d.hasPending {
		d.pending = block
		d.hasPending = true
		return
	}
	d.compress(d.pending, block)
	d.hasPending = false
}

// Sum finalizes and returns the digest. The digester state is not consumed:
// further Write calls continue from where they left off, and Sum may be
// called again.
func (d *Digester) Sum() uint64 {
	state := d.state

	// Align to 2x64 bit: an odd trailing block pairs with itself.
	if d.hasPending {
		state ^= encrypt128(state, d.pending, d.pending)
	}

	// Finalization against the digest constant.
	state ^= encrypt128(state, d.cnst.Lo, d.cnst.Hi)

	return state
}

func (d *Digester) compress(b0, b1 uint64) {
	d.state ^= encrypt128(d.state, b0, b1)
}

// encrypt128 encrypts state under the 128-bit key formed by (lo, hi).
func encrypt128(state, lo, hi uint64) uint64 {
	return NewPresent128(Uint128{Lo: lo, Hi: hi}.Bytes()).EncryptBlock(state)
}

// Digest computes the OTP digest of data, which must be a multiple of 8
// bytes long. Blocks are decoded little-endian. Violating the length
// precondition is a programming error and panics.
//
// Digest(data, iv, cnst) is bit-for-bit identical to writing the decoded
// blocks of data to a Digester and calling Sum.
func Digest(data []byte, iv uint64, cnst Uint128) uint64 {
	if len(data)%8 != 0 {
		panic(fmt.Sprintf("otp: digest input length %d is not a multiple of 8", len(data)))
	}

	d := NewDigester(iv, cnst)
	for ; len(data) > 0; data = data[8:] {
		d.Write(binary.LittleEndian.Uint64(data[:8]))
	}
	return d.Sum()
}
