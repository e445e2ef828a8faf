// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package sample generates and validates the variable-length payloads
// the workload driver writes to and reads back from storage. A
// Sample's contents are derived entirely from a PRNG sequence, so
// validating a read-back sample never requires holding the original
// payload in memory: re-running the same PRNG sequence reproduces it.
package sample

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/prng"
)

const (
	// LenMax is the largest payload this package will ever produce:
	// 384 32-bit words. LenMax must be an integral number of 4-byte
	// words; the rest of this package depends on that.
	LenMax = 384 * 4

	// LenMin is the smallest payload length.
	LenMin = LenMax / 2
)

// Sample is a variable-length octet payload whose length and contents
// are derived from a PRNG. The backing buffer is allocated once, at
// LenMax, and reused across calls to Init so that a worker can
// generate or validate many samples without repeated allocation.
type Sample struct {
	len  int
	data []byte
}

// New allocates a Sample and initialises it from P.
func New(p prng.PRNG) *Sample {
	s := &Sample{data: make([]byte, LenMax)}
	s.Init(p)
	return s
}

func sampleLen(p prng.PRNG) int {
	return int(p.Next())%(LenMax-LenMin) + LenMin
}

// Init (re)derives this sample's length and contents from P, in place,
// reusing the backing buffer. It advances P by one call for the length
// plus one call per 4 bytes of payload (rounding up).
func (s *Sample) Init(p prng.PRNG) {
	s.len = sampleLen(p)

	wholeWords := s.len / 4
	remainder := s.len % 4

	for i := 0; i < wholeWords; i++ {
		binary.LittleEndian.PutUint32(s.data[i*4:], p.Next())
	}

	if remainder != 0 {
		var tail [4]byte
		binary.LittleEndian.PutUint32(tail[:], p.Next())
		copy(s.data[wholeWords*4:s.len], tail[:remainder])
	}
}

// Read overwrites this sample's contents with externally-supplied
// bytes, for read-back validation. It trusts the caller's length,
// which must not exceed LenMax.
func (s *Sample) Read(data []byte) {
	s.len = len(data)
	copy(s.data, data)
}

// Validate re-derives the expected length and contents from P (which
// must be the PRNG that produced this sample's payload, reinitialised
// to the seed that generated it) and compares them word-by-word,
// consuming P in exactly the order Init did. It returns false on the
// first mismatch, logging the position at which validation failed.
func (s *Sample) Validate(p prng.PRNG) bool {
	wantLen := sampleLen(p)
	if s.len != wantLen {
		logger.Errorf("sample: length mismatch: wanted %v, got %v\n", wantLen, s.len)
		return false
	}

	wholeWords := s.len / 4
	remainder := s.len % 4

	for i := 0; i < wholeWords; i++ {
		want := p.Next()
		got := binary.LittleEndian.Uint32(s.data[i*4:])
		if want != got {
			logger.Errorf("sample: data mismatch at word %v: wanted %08x, got %08x\n", i, want, got)
			return false
		}
	}

	if remainder != 0 {
		var tail [4]byte
		binary.LittleEndian.PutUint32(tail[:], p.Next())
		got := s.data[wholeWords*4 : s.len]
		if !bytes.Equal(tail[:remainder], got) {
			logger.Errorf("sample: data mismatch in tail remainder (%v bytes)\n", remainder)
			return false
		}
	}

	return true
}

// Len reports the current payload length in bytes.
func (s *Sample) Len() int {
	return s.len
}

// Data returns the current payload. The returned slice aliases the
// sample's backing buffer and is only valid until the next Init/Read.
func (s *Sample) Data() []byte {
	return s.data[:s.len]
}

// String is a convenience for diagnostics.
func (s *Sample) String() string {
	return fmt.Sprintf("sample(len=%v)", s.len)
}
