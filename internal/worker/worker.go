// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package worker implements the write-then-read workload a single
// worker (goroutine or subprocess) drives against a storage backend,
// and the bandwidth-pacing logic adapted from sibench's worker.go.
package worker

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/softiron/motifbench/internal/barrier"
	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/report"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/softiron/motifbench/internal/trace"
)

// StatFunc is how a worker reports each completed operation. The
// supervisor supplies one that either appends directly to its own
// report.Report (goroutine mode) or ships the Stat back over comms
// (process mode).
type StatFunc func(report.Stat)

// Run executes order's write phase then read phase against a single
// storage backend instance, waiting on b before starting so that
// every worker in the run begins (to within barrier-release latency)
// at the same instant. It never calls the backend's Destroy: the
// workspace is torn down by the party that called Create.
func Run(order Order, b barrier.Barrier, emit StatFunc) error {
	seed := order.Seed
	if seed == 0 {
		now := time.Now()
		seed = uint32(now.Unix()) ^ uint32(now.Nanosecond())
	}

	traceFile, err := os.Create(filepath.Join(order.TraceDir, fmt.Sprintf("%x.trc", order.Ordinal)))
	if err != nil {
		return fmt.Errorf("worker %d: opening trace file: %w", order.Ordinal, err)
	}
	defer traceFile.Close()

	start := time.Now()
	ring := trace.NewRing(traceFile, start)
	ring.Start()

	backend, err := storage.New(order.StorageImpl, ring, start)
	if err != nil {
		ring.Fini()
		return fmt.Errorf("worker %d: selecting backend: %w", order.Ordinal, err)
	}

	// The workspace itself (the directory, bucket or pool) is created
	// once by the supervisor before any worker starts; each worker
	// only attaches its own handle to it.
	if err := backend.Open(order.Workspace, order.Argv); err != nil {
		ring.Fini()
		return fmt.Errorf("worker %d: opening backend: %w", order.Ordinal, err)
	}

	if err := b.Wait(); err != nil {
		ring.Fini()
		return fmt.Errorf("worker %d: waiting on start barrier: %w", order.Ordinal, err)
	}

	p := prng.New(order.PRNGImpl, seed)
	s := sample.New(p)
	pc := newPacer(order.Bandwidth)

	objIDs := runWritePhase(order, p, s, backend, emit, pc)
	runReadPhase(order, objIDs, p, s, backend, emit, pc)

	return ring.Fini()
}

// runWritePhase writes order.WriteCount objects, recording the
// peeked PRNG value as each object's identity and re-initialising P
// with it before sample_init advances the sequence: that peeked value
// is exactly the seed a reader must re-init P with to reproduce this
// object's payload.
func runWritePhase(order Order, p prng.PRNG, s *sample.Sample, backend storage.Backend, emit StatFunc, pc *pacer) []uint32 {
	objIDs := make([]uint32, order.WriteCount)
	phaseStart := time.Now()

	for i := uint64(0); i < order.WriteCount; i++ {
		objID := p.Peek()
		objIDs[i] = objID
		p.Init(objID)
		s.Init(p)

		pc.limit(uint64(s.Len()))

		opStart := time.Now()
		err := backend.Write(order.Ordinal, objID, s)
		end := time.Now()

		ok := err == nil
		if err != nil {
			logger.Warnf("worker %d: write of %08x failed: %v\n", order.Ordinal, objID, err)
		}

		emit(report.Stat{
			Ordinal:             order.Ordinal,
			Phase:               report.Write,
			TimeSincePhaseStart: end.Sub(phaseStart),
			Duration:            end.Sub(opStart),
			OK:                  ok,
		})
	}

	return objIDs
}

// runReadPhase reads back order.ReadCount objects, cycling through
// the identities runWritePhase produced, and validates each payload
// against the PRNG sequence re-seeded with that object's identity. A
// validation failure is logged but never aborts the run.
func runReadPhase(order Order, objIDs []uint32, p prng.PRNG, s *sample.Sample, backend storage.Backend, emit StatFunc, pc *pacer) {
	if len(objIDs) == 0 {
		return
	}

	phaseStart := time.Now()

	for i := uint64(0); i < order.ReadCount; i++ {
		objID := objIDs[i%uint64(len(objIDs))]

		pc.limit(uint64(sample.LenMax))

		opStart := time.Now()
		err := backend.Read(order.Ordinal, objID, s)
		end := time.Now()

		ok := err == nil
		if err != nil {
			logger.Warnf("worker %d: read of %08x failed: %v\n", order.Ordinal, objID, err)
		} else {
			p.Init(objID)
			if !s.Validate(p) {
				logger.Errorf("worker %d: validation failed for %08x\n", order.Ordinal, objID)
				ok = false
			}
		}

		emit(report.Stat{
			Ordinal:             order.Ordinal,
			Phase:               report.Read,
			TimeSincePhaseStart: end.Sub(phaseStart),
			Duration:            end.Sub(opStart),
			OK:                  ok,
		})
	}
}

// pacer throttles a worker to order.Bandwidth bytes/sec, splitting
// each delay into a pre-operation and post-operation component so
// traffic stays smooth rather than bursty, and nudging the first
// operation of a run by a small random amount so many workers
// starting in lockstep don't all hit the backend at once. Ported from
// sibench's Worker.limitBandwidth.
type pacer struct {
	bandwidth  uint64
	firstOp    bool
	lastStart  time.Time
	avgElapsed time.Duration
	postDelay  time.Duration
}

func newPacer(bandwidth uint64) *pacer {
	return &pacer{bandwidth: bandwidth, firstOp: true}
}

func (pc *pacer) limit(opBytes uint64) {
	if pc.bandwidth == 0 {
		return
	}

	if pc.firstOp {
		time.Sleep(time.Duration(rand.Intn(1000 * 1000 * 10)))
		pc.firstOp = false
		pc.lastStart = time.Now()
		pc.avgElapsed = 0
		pc.postDelay = 0
		return
	}

	elapsed := time.Since(pc.lastStart)
	time.Sleep(pc.postDelay)

	if pc.avgElapsed == 0 {
		pc.avgElapsed = elapsed
	} else {
		pc.avgElapsed = (pc.avgElapsed*7 + elapsed) / 8
	}

	desired := time.Duration(1000 * 1000 * 1000 * opBytes / pc.bandwidth)

	if desired > pc.avgElapsed {
		totalDelay := desired - pc.avgElapsed
		preDelay := time.Duration(rand.Int63n(int64(totalDelay) + 1))
		pc.postDelay = totalDelay - preDelay
		time.Sleep(preDelay)
	} else {
		pc.postDelay = 0
	}

	pc.lastStart = time.Now()
}
