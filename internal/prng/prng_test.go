// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package prng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	impl, err := Parse("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, Debug, impl)

	impl, err = Parse("XORSHIFT")
	require.NoError(t, err)
	assert.Equal(t, Xorwow, impl)

	_, err = Parse("BOGUS")
	assert.Error(t, err)
}

func TestDebugSequence(t *testing.T) {
	p := New(Debug, 100)
	for i := uint32(0); i < 10; i++ {
		assert.Equal(t, 100+i, p.Next())
	}
}

func TestDebugPeek(t *testing.T) {
	p := New(Debug, 7)
	assert.Equal(t, p.Peek(), p.Peek())
	peeked := p.Peek()
	assert.Equal(t, peeked, p.Next())
}

func TestPeekAfterInitIsSeed(t *testing.T) {
	for _, impl := range []Impl{Debug, Xorwow} {
		p := New(impl, 0x12345678)
		assert.Equal(t, uint32(0x12345678), p.Peek(), "impl %v", impl)
	}
}

func TestReinitReproducesSequence(t *testing.T) {
	for _, impl := range []Impl{Debug, Xorwow} {
		p := New(impl, 42)

		var first [1024]uint32
		for i := range first {
			first[i] = p.Next()
		}

		p.Init(42)
		for i := range first {
			assert.Equal(t, first[i], p.Next(), "impl %v index %v", impl, i)
		}
	}
}

func TestIndependentInstancesAgree(t *testing.T) {
	for _, impl := range []Impl{Debug, Xorwow} {
		a := New(impl, 9001)
		b := New(impl, 9001)

		for i := 0; i < 1024; i++ {
			assert.Equal(t, a.Next(), b.Next(), "impl %v index %v", impl, i)
		}
	}
}

func TestSeedUniqueness(t *testing.T) {
	for _, impl := range []Impl{Debug, Xorwow} {
		p := New(impl, 42)
		var a [5]uint32
		for i := range a {
			a[i] = p.Next()
		}

		p.Init(uint32(^uint32(42)))
		var b [5]uint32
		for i := range b {
			b[i] = p.Next()
		}

		assert.NotEqual(t, a, b, "impl %v", impl)
	}
}

// TestXorwowReferenceVector pins the xorwow implementation to a
// reference vector captured from the generator this harness was
// ported from, so a change to the algorithm is caught immediately
// rather than silently breaking read-back validation for traces
// produced by an older build.
func TestXorwowReferenceVector(t *testing.T) {
	p := New(Xorwow, 0xDEADBEEF)

	expected := []uint32{
		0x599afe64,
		0x289a89be,
		0x00dcfe93,
		0x109b30c6,
		0x143adaa0,
	}

	for i, want := range expected {
		assert.Equal(t, want, p.Next(), "output %v", i)
	}
}
