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

// pdstool builds and inspects Platform Descriptor Store (PDS) images and
// computes OTP digests and scrambled blocks on the host.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/secure-foundries/mcu-core/otp"
	"github.com/secure-foundries/mcu-core/pds"
)

type descriptorFlags []pds.Descriptor

func (d *descriptorFlags) String() string {
	return fmt.Sprintf("%d descriptors", len(*d))
}

// Set parses a "uuid=path" descriptor specification.
func (d *descriptorFlags) Set(s string) error {
	typ, path, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected uuid=path, got %q", s)
	}
	u, err := uuid.Parse(typ)
	if err != nil {
		return fmt.Errorf("invalid descriptor type %q: %v", typ, err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	*d = append(*d, pds.Descriptor{Type: u, Payload: payload})
	return nil
}

type Config struct {
	build   string
	inspect string
	version string
	descs   descriptorFlags

	digest   string
	iv       string
	constant string

	scramble   string
	unscramble string
	key        string
}

var conf *Config

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	conf = &Config{}

	flag.StringVar(&conf.build, "build", "", "write a PDS image to the given path")
	flag.StringVar(&conf.inspect, "inspect", "", "validate and print a PDS image")
	flag.StringVar(&conf.version, "version", "", "advisory version string for -build")
	flag.Var(&conf.descs, "desc", "descriptor to add for -build, as uuid=payloadfile (repeatable)")

	flag.StringVar(&conf.digest, "digest", "", "compute the OTP digest of the given file")
	flag.StringVar(&conf.iv, "iv", "0", "64-bit digest IV (hex)")
	flag.StringVar(&conf.constant, "const", "0", "128-bit digest finalization constant (hex)")

	flag.StringVar(&conf.scramble, "scramble", "", "64-bit block to scramble (hex)")
	flag.StringVar(&conf.unscramble, "unscramble", "", "64-bit block to unscramble (hex)")
	flag.StringVar(&conf.key, "key", "", "128-bit scrambling key (32 hex digits)")
}

func main() {
	flag.Parse()

	var err error

	switch {
	case conf.build != "":
		err = build()
	case conf.inspect != "":
		err = inspect()
	case conf.digest != "":
		err = digest()
	case conf.scramble != "" || conf.unscramble != "":
		err = scramble()
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s error: %v", os.Args[0], err)
	}
}

func build() error {
	b := &pds.Builder{}

	if conf.version != "" {
		if err := b.SetVersionString(conf.version); err != nil {
			return err
		}
	}
	for _, d := range conf.descs {
		b.AddDescriptor(d.Type, d.Payload)
	}

	img := b.Bytes()
	if err := os.WriteFile(conf.build, img, 0o644); err != nil {
		return err
	}

	log.Printf("wrote %d bytes (%d descriptors) to %s", len(img), len(conf.descs), conf.build)
	return nil
}

func inspect() error {
	data, err := os.ReadFile(conf.inspect)
	if err != nil {
		return err
	}

	header, err := pds.ValidateHeader(data)
	if err != nil {
		return fmt.Errorf("invalid PDS image: %v", err)
	}

	log.Printf("Magic ..................: %#08x", header.Magic)
	log.Printf("Header size ............: %d", header.HeaderSize)
	log.Printf("Header CRC .............: %#08x", header.HeaderCRC)
	log.Printf("Version ................: %d", header.Version)
	if v, err := header.SemVer(); err == nil {
		log.Printf("Version string .........: %s (semver %s)", header.VersionInfo(), v)
	} else {
		log.Printf("Version string .........: %q", header.VersionInfo())
	}

	n := 0
	err = pds.ForEachDescriptor(data, header, pds.DefaultMaxDescriptors, func(d pds.Descriptor) bool {
		log.Printf("Descriptor %-2d ..........: %s (%d byte payload)", n, d.Type, len(d.Payload))
		n++
		return true
	})
	if err != nil {
		return fmt.Errorf("invalid descriptor chain: %v", err)
	}

	log.Printf("%d descriptors", n)
	return nil
}

func digest() error {
	data, err := os.ReadFile(conf.digest)
	if err != nil {
		return err
	}
	if len(data)%8 != 0 {
		return fmt.Errorf("input length %d is not a multiple of 8", len(data))
	}

	iv, err := strconv.ParseUint(strings.TrimPrefix(conf.iv, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid IV: %v", err)
	}
	cnst, err := parseUint128(conf.constant)
	if err != nil {
		return fmt.Errorf("invalid constant: %v", err)
	}

	log.Printf("%016x", otp.Digest(data, iv, cnst))
	return nil
}

func scramble() error {
	in := conf.scramble
	if in == "" {
		in = conf.unscramble
	}

	block, err := strconv.ParseUint(strings.TrimPrefix(in, "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("invalid block: %v", err)
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(conf.key, "0x"))
	if err != nil || len(raw) != 16 {
		return fmt.Errorf("key must be 32 hex digits")
	}
	var key [16]byte
	copy(key[:], raw)

	if conf.scramble != "" {
		log.Printf("%016x", otp.Scramble(block, key))
	} else {
		log.Printf("%016x", otp.Unscramble(block, key))
	}
	return nil
}

// parseUint128 parses up to 32 hex digits into a 128-bit value.
func parseUint128(s string) (otp.Uint128, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) > 32 {
		return otp.Uint128{}, fmt.Errorf("value %q exceeds 128 bits", s)
	}

	var u otp.Uint128
	if len(s) > 16 {
		hi, err := strconv.ParseUint(s[:len(s)-16], 16, 64)
		if err != nil {
			return otp.Uint128{}, err
		}
		u.Hi = hi
		s = s[len(s)-16:]
	}
	lo, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return otp.Uint128{}, err
	}
	u.Lo = lo
	return u, nil
}
