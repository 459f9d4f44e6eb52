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
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Round-key schedule derived from the all-zero 80-bit key.
var roundKeys80 = [Rounds]uint64{
	0x0000000000000000, 0xc000000000000000, 0x5000180000000001, 0x60000a0003000001,
	0xb0000c0001400062, 0x900016000180002a, 0x0001920002c00033, 0xa000a0003240005b,
	0xd000d4001400064c, 0x30017a001a800284, 0xe01926002f400355, 0xf00a1c0324c005ed,
	0x800d5e014380649e, 0x4017b001abc02876, 0x71926802f600357f, 0x10a1ce324d005ec7,
	0x20d5e21439c649a8, 0xc17b041abc428730, 0xc926b82f60835781, 0x6a1cd924d705ec19,
	0xbd5e0d439b249aea, 0x07b077abc1a8736e, 0x426ba0f60ef5783e, 0x41cda84d741ec1d5,
	0xf5e0e839b509ae8f, 0x2b075ebc1d0736ad, 0x86ba2560ebd783ad, 0x8cdab0d744ac1d77,
	0x1e0eb19b561ae89b, 0xd075c3c1d6336acd, 0x8ba27a0eb8783ac9, 0x6dab31744f41d700,
}

// Round-key schedule derived from the all-zero 128-bit key.
var roundKeys128 = [Rounds]uint64{
	0x0000000000000000, 0xcc00000000000000, 0xc300000000000000, 0x5b30000000000000,
	0x580c000000000001, 0x656cc00000000001, 0x6e60300000000001, 0xb595b30000000001,
	0xbeb980c000000002, 0x96d656cc00000002, 0x9ffae60300000002, 0x065b595b30000002,
	0x0f7feb980c000003, 0xac196d656cc00003, 0xa33dffae60300003, 0xd6b065b595b30003,
	0xdf8cf7feb980c004, 0x3b5ac196d656cc04, 0x387e33dffae60304, 0xeced6b065b595b34,
	0xe3e1f8cf7feb9809, 0x6bb3b5ac196d6569, 0xbb8f87e33dffae65, 0x80aeced6b065b590,
	0xc1ee3e1f8cf7febf, 0x2602bb3b5ac196d0, 0xcb07b8f87e33dffc, 0x34980aeced6b065d,
	0x8b2c1ee3e1f8cf78, 0x54d2602bb3b5ac1e, 0x4a2cb07b8f87e33a, 0x97534980aeced6b7,
}

func TestRoundKeys80(t *testing.T) {
	p := NewPresent80([10]byte{})
	if diff := cmp.Diff(p.roundKeys, roundKeys80); diff != "" {
		t.Fatalf("Got round key diff: %s", diff)
	}
}

func TestRoundKeys128(t *testing.T) {
	p := NewPresent128([16]byte{})
	if diff := cmp.Diff(p.roundKeys, roundKeys128); diff != "" {
		t.Fatalf("Got round key diff: %s", diff)
	}
}

func allBytes(b byte, n int) []byte {
	r := make([]byte, n)
	for i := range r {
		r[i] = b
	}
	return r
}

func TestKnownVectors(t *testing.T) {
	key128 := func(b byte) *Present {
		var k [16]byte
		copy(k[:], allBytes(b, 16))
		return NewPresent128(k)
	}

	for _, test := range []struct {
		name   string
		cipher *Present
		plain  uint64
		want   uint64
	}{
		{
			name:   "PRESENT-80 zero key, zero block",
			cipher: NewPresent80([10]byte{}),
			plain:  0,
			want:   0x5579c1387b228445,
		}, {
			name:   "PRESENT-128 zero key, zero block",
			cipher: key128(0),
			plain:  0,
			want:   0x96db702a2e6900af,
		}, {
			name:   "PRESENT-128 zero key, ones block",
			cipher: key128(0),
			plain:  ^uint64(0),
			want:   0x3c6019e5e5edd563,
		}, {
			name:   "PRESENT-128 ones key, zero block",
			cipher: key128(0xff),
			plain:  0,
			want:   0x13238c710272a5d8,
		}, {
			name:   "PRESENT-128 ones key, ones block",
			cipher: key128(0xff),
			plain:  ^uint64(0),
			want:   0x628d9fbd4218e5b4,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := test.cipher.EncryptBlock(test.plain); got != test.want {
				t.Errorf("EncryptBlock(%#x) = %#x, want %#x", test.plain, got, test.want)
			}
			if got := test.cipher.DecryptBlock(test.want); got != test.plain {
				t.Errorf("DecryptBlock(%#x) = %#x, want %#x", test.want, got, test.plain)
			}
		})
	}
}

// TestLittleEndianKeyOrder pins the least-significant-byte-first key
// mapping.
func TestLittleEndianKeyOrder(t *testing.T) {
	key := Uint128{Lo: 0x0123456789abcdef, Hi: 0x0123456789abcdef}.Bytes()
	got := NewPresent128(key).EncryptBlock(0x0123456789abcdef)
	if want := uint64(0x0e9d28685e671dd6); got != want {
		t.Fatalf("EncryptBlock = %#x, want %#x", got, want)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	var key80 [10]byte
	var key128 [16]byte
	rng.Read(key80[:])
	rng.Read(key128[:])

	for _, test := range []struct {
		name   string
		cipher *Present
	}{
		{name: "80-bit", cipher: NewPresent80(key80)},
		{name: "128-bit", cipher: NewPresent128(key128)},
	} {
		t.Run(test.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				b := rng.Uint64()
				if got := test.cipher.DecryptBlock(test.cipher.EncryptBlock(b)); got != b {
					t.Fatalf("DecryptBlock(EncryptBlock(%#x)) = %#x", b, got)
				}
			}
		})
	}
}
