// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package prng

// debugPRNG is the reference implementation using an incrementing
// sequence: same API as the real generators, but no randomness, so
// that traces can be read by eye while debugging the harness itself.
type debugPRNG struct {
	seq uint32
}

func newDebug(seed uint32) *debugPRNG {
	return &debugPRNG{seq: seed}
}

func (p *debugPRNG) Init(seed uint32) {
	p.seq = seed
}

func (p *debugPRNG) Next() uint32 {
	v := p.seq
	p.seq++
	return v
}

func (p *debugPRNG) Peek() uint32 {
	return p.seq
}
