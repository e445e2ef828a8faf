// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/softiron/motifbench/internal/prng"
)

func TestRoundTrip(t *testing.T) {
	for _, impl := range []prng.Impl{prng.Debug, prng.Xorwow} {
		s := New(prng.New(impl, 42))
		ok := s.Validate(prng.New(impl, 42))
		assert.True(t, ok, "impl %v", impl)
	}
}

func TestLengthDeterminism(t *testing.T) {
	for _, impl := range []prng.Impl{prng.Debug, prng.Xorwow} {
		a := New(prng.New(impl, 1234))
		b := New(prng.New(impl, 1234))
		assert.Equal(t, a.Len(), b.Len(), "impl %v", impl)
		assert.GreaterOrEqual(t, a.Len(), LenMin)
		assert.LessOrEqual(t, a.Len(), LenMax)
	}
}

func TestCrossSeedRejection(t *testing.T) {
	for _, impl := range []prng.Impl{prng.Debug, prng.Xorwow} {
		s := New(prng.New(impl, 1))
		ok := s.Validate(prng.New(impl, 2))
		assert.False(t, ok, "impl %v", impl)
	}
}

func TestReadThenValidateFails(t *testing.T) {
	// Bytes read back from storage that don't match any valid
	// sequence for the given seed must fail validation.
	s := New(prng.New(prng.Debug, 5))
	original := append([]byte(nil), s.Data()...)
	original[0] ^= 0xFF
	s.Read(original)

	ok := s.Validate(prng.New(prng.Debug, 5))
	assert.False(t, ok)
}

func TestReadRoundTrip(t *testing.T) {
	s := New(prng.New(prng.Xorwow, 77))
	data := append([]byte(nil), s.Data()...)

	other := &Sample{data: make([]byte, LenMax)}
	other.Read(data)

	assert.Equal(t, s.Len(), other.Len())
	assert.Equal(t, s.Data(), other.Data())
	assert.True(t, other.Validate(prng.New(prng.Xorwow, 77)))
}

func TestInitReusesBuffer(t *testing.T) {
	p := prng.New(prng.Debug, 1)
	s := New(p)
	firstBuf := s.data

	s.Init(prng.New(prng.Debug, 2))
	assert.Same(t, &firstBuf[0], &s.data[0])
}
