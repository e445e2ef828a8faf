// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package worker

import (
	"time"

	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/storage"
)

// Order is everything a worker needs to run a phase pair, whether it
// executes as a goroutine in the supervisor's own process or as a
// re-exec'd subprocess driven over comms. It is gob-encodable so
// process-mode can send it down a pipe unchanged.
type Order struct {
	Ordinal uint32

	// Seed is this worker's PRNG seed. Zero means "derive one from
	// the clock", per spec section 6; the supervisor leaves this
	// decision to the worker itself so that two workers started in
	// the same instant don't collide.
	Seed uint32

	PRNGImpl    prng.Impl
	StorageImpl storage.Impl
	Workspace   string
	Argv        []string

	TraceDir string

	WriteCount uint64
	ReadCount  uint64

	// Bandwidth caps this worker's throughput in bytes/sec across
	// both phases; zero means unlimited.
	Bandwidth uint64

	// RampUp and RampDown are not used by the worker, which applies
	// no special behaviour during them; the supervisor windows
	// warm-up/cool-down periods out of its report using its own
	// Config values.
	RampUp   time.Duration
	RampDown time.Duration
}

// Result is what a worker reports back after running an Order to
// completion: its own exit status, for the supervisor to aggregate.
type Result struct {
	Ordinal uint32
	Err     string // empty on success; fatal infrastructure errors only
}
