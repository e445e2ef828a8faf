// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package supervisor drives a full benchmark run: it parses once into
// a Config, picks a worker-execution strategy (goroutines or
// subprocesses), lines every worker up on a start barrier, and
// aggregates their results into a report.Report.
package supervisor

import (
	"time"

	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/storage"
)

// Config is everything a run needs, already validated and converted
// out of whatever CLI surface produced it. It mirrors sibench's own
// Job, generalised from sibench's multi-server/multi-target model to
// this harness's single-backend/N-worker one.
type Config struct {
	PRNGImpl    prng.Impl
	Seed        uint32
	StorageImpl storage.Impl
	Workspace   string
	Argv        []string

	TraceDir string

	WriteCount uint64
	ReadCount  uint64
	Parallel   uint32

	Bandwidth uint64
	RampUp    time.Duration
	RampDown  time.Duration

	// Processes selects process-mode workers (re-exec'd subprocesses
	// synchronised via barrier.Shared) over the default in-process
	// goroutine workers.
	Processes bool

	JSONOutput string
	Verbose    int
}

// deriveSeed produces worker ordinal's seed from the run's base seed.
// A base seed of 0 leaves each worker to derive its own from the
// clock, per spec section 6; a nonzero base seed is perturbed per
// ordinal so that parallel workers don't all write the identical
// object sequence.
func deriveSeed(base uint32, ordinal uint32) uint32 {
	if base == 0 {
		return 0
	}
	return base + ordinal
}
