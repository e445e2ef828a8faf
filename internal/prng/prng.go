// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package prng provides deterministic, seedable, peekable 32-bit integer
// streams for the workload driver.
//
// Two implementations are provided: Debug, which emits seed, seed+1,
// seed+2, ... and is useful for reasoning about traces by hand; and
// Xorwow, the Marsaglia xorwow generator also used as the default RNG
// in the CUDA toolkit. Re-initialising a PRNG with the same seed
// reproduces the exact sequence that any other PRNG instance produces
// from that seed: this is the property the sample and storage layers
// depend on for read-back validation.
package prng

import "fmt"

// PRNG produces a reproducible sequence of 32-bit values from a seed.
type PRNG interface {
	// Next advances the sequence and returns the new value.
	Next() uint32

	// Peek returns a value without advancing the sequence.
	// Immediately after Init, Peek returns the seed itself for every
	// implementation in this package. For Debug, Peek is always the
	// value Next will produce; for Xorwow, it is the value most
	// recently produced (the seed, until Next is first called).
	Peek() uint32

	// Init fully replaces the generator's state with a fresh sequence
	// derived from seed. No residue from prior use is observable.
	Init(seed uint32)
}

// Impl names a PRNG implementation, selected once, process-wide,
// before any PRNG is created.
type Impl int

const (
	Debug Impl = iota
	Xorwow
)

func (i Impl) String() string {
	switch i {
	case Debug:
		return "DEBUG"
	case Xorwow:
		return "XORSHIFT"
	default:
		return "UNKNOWN"
	}
}

// Parse maps a configuration string (spec section 6's PRNG option) to
// an Impl.
func Parse(name string) (Impl, error) {
	switch name {
	case "DEBUG":
		return Debug, nil
	case "XORSHIFT":
		return Xorwow, nil
	}
	return Debug, fmt.Errorf("unknown PRNG implementation: %v", name)
}

// New creates a PRNG of the given implementation, seeded with seed.
func New(impl Impl, seed uint32) PRNG {
	switch impl {
	case Xorwow:
		return newXorwow(seed)
	default:
		return newDebug(seed)
	}
}
