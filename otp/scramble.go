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
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Scramble obfuscates a 64-bit OTP word under a 128-bit key.
func Scramble(block uint64, key [16]byte) uint64 {
	return NewPresent128(key).EncryptBlock(block)
}

// Unscramble recovers a 64-bit OTP word scrambled by Scramble.
func Unscramble(block uint64, key [16]byte) uint64 {
	return NewPresent128(key).DecryptBlock(block)
}

// PBKDF2 iteration count for scrambling key derivation.
const deriveIter = 4096

// DeriveKey derives a 128-bit scrambling key from a device secret and a
// purpose diversifier. Distinct diversifiers yield independent keys from the
// same secret, so one hardware-unique secret can back multiple OTP regions.
func DeriveKey(secret []byte, diversifier string) [16]byte {
	var key [16]byte
	copy(key[:], pbkdf2.Key(secret, []byte(diversifier), deriveIter, len(key), sha256.New))
	return key
}
