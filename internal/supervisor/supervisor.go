// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package supervisor

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/softiron/motifbench/internal/barrier"
	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/report"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/softiron/motifbench/internal/trace"
	"github.com/softiron/motifbench/internal/worker"
)

// averageObjectSize approximates the bandwidth-bearing payload size
// for Analysis: samples are variable-length between sample.LenMin and
// sample.LenMax, so there is no single fixed object size to report,
// unlike sibench's own fixed-size objects.
const averageObjectSize = (sample.LenMin + sample.LenMax) / 2

// Run executes cfg: it selects PRNG/Storage once (by construction,
// since every worker.Order built here shares cfg's Impl fields),
// initialises the (N+1)-party start barrier, launches the N workers,
// waits on the barrier itself as the final arrival, reaps every
// worker, and writes the JSON report to out. rawArgs is recorded in
// the report verbatim, for reproducibility.
//
// This is the goroutine-worker strategy: every worker runs as a
// goroutine in this process, synchronised by barrier.Local. Run
// dispatches to runProcesses instead when cfg.Processes is set.
func Run(cfg Config, rawArgs []string, out io.Writer) error {
	if cfg.Processes {
		return runProcesses(cfg, rawArgs, out)
	}

	if err := os.MkdirAll(cfg.TraceDir, 0755); err != nil {
		return fmt.Errorf("supervisor: creating trace directory: %w", err)
	}

	setup, err := storage.New(cfg.StorageImpl, noopRecorder{}, time.Now())
	if err != nil {
		return fmt.Errorf("supervisor: selecting backend: %w", err)
	}
	if err := setup.Create(cfg.Workspace, cfg.Argv); err != nil {
		return fmt.Errorf("supervisor: creating workspace: %w", err)
	}
	defer func() {
		if err := setup.Destroy(); err != nil {
			logger.Errorf("supervisor: destroying workspace: %v\n", err)
		}
	}()

	rep, err := report.New(out, rawArgs)
	if err != nil {
		return fmt.Errorf("supervisor: opening report: %w", err)
	}

	b := barrier.NewLocal(int(cfg.Parallel) + 1)

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make([]worker.Result, cfg.Parallel)

	for ord := uint32(0); ord < cfg.Parallel; ord++ {
		wg.Add(1)
		go func(ordinal uint32) {
			defer wg.Done()

			order := worker.Order{
				Ordinal:     ordinal,
				Seed:        deriveSeed(cfg.Seed, ordinal),
				PRNGImpl:    cfg.PRNGImpl,
				StorageImpl: cfg.StorageImpl,
				Workspace:   cfg.Workspace,
				Argv:        cfg.Argv,
				TraceDir:    cfg.TraceDir,
				WriteCount:  cfg.WriteCount,
				ReadCount:   cfg.ReadCount,
				Bandwidth:   cfg.Bandwidth,
				RampUp:      cfg.RampUp,
				RampDown:    cfg.RampDown,
			}

			emit := func(s report.Stat) {
				mu.Lock()
				if err := rep.AddStat(s); err != nil {
					logger.Errorf("supervisor: writing stat: %v\n", err)
				}
				mu.Unlock()
			}

			err := worker.Run(order, b, emit)
			res := worker.Result{Ordinal: ordinal}
			if err != nil {
				res.Err = err.Error()
				mu.Lock()
				rep.AddError(fmt.Errorf("worker %d: %w", ordinal, err))
				mu.Unlock()
			}
			results[ordinal] = res
		}(ord)
	}

	if err := b.Wait(); err != nil {
		return fmt.Errorf("supervisor: waiting on start barrier: %w", err)
	}

	wg.Wait()

	ordinals := make([]uint32, cfg.Parallel)
	for i := range ordinals {
		ordinals[i] = uint32(i)
	}

	rep.Analyse(uint64(averageObjectSize), cfg.RampUp, cfg.RampDown, ordinals)
	rep.DisplayAnalyses(os.Stdout)

	if err := rep.Close(); err != nil {
		return fmt.Errorf("supervisor: closing report: %w", err)
	}

	return firstWorkerError(results)
}

func firstWorkerError(results []worker.Result) error {
	for _, r := range results {
		if r.Err != "" {
			return fmt.Errorf("worker %d failed: %s", r.Ordinal, r.Err)
		}
	}
	return nil
}

// noopRecorder discards trace entries; it exists only to satisfy
// storage.New for the supervisor's own setup/teardown backend
// instance, whose Create and Destroy never call Trace (only Write and
// Read do, and the setup backend never writes or reads an object).
type noopRecorder struct{}

func (noopRecorder) Trace(op trace.Op, ts, duration time.Duration, tag string) {}
