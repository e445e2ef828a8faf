// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package barrier implements the N-party rendezvous that lines up
// every worker (goroutine or process) once, before the write phase,
// before any of them is allowed to proceed, so latency measurements
// for "the write phase" all start from the same instant.
package barrier

// Barrier is the contract both the in-process and cross-process
// implementations satisfy. Wait blocks the calling goroutine/process
// until N parties (the count the Barrier was built with) have all
// called Wait, then releases all of them together. A Barrier is good
// for exactly one round; callers needing several rounds build one
// Barrier per round.
type Barrier interface {
	Wait() error
	Close() error
}
