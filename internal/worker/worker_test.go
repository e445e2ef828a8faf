// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package worker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/softiron/motifbench/internal/barrier"
	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/report"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/softiron/motifbench/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createWorkspace mirrors what the supervisor does once, before any
// worker starts: build a throwaway backend instance and call Create,
// so that each worker's own backend.Open (inside Run) finds a
// workspace already in place.
func createWorkspace(t *testing.T, impl storage.Impl, workspace string) error {
	t.Helper()
	backend, err := storage.New(impl, discardRecorder{}, time.Now())
	if err != nil {
		return err
	}
	return backend.Create(workspace, nil)
}

type discardRecorder struct{}

func (discardRecorder) Trace(op trace.Op, ts, duration time.Duration, tag string) {}

func TestRunWritesThenReadsBackValidated(t *testing.T) {
	dir := t.TempDir()
	workspace := dir + "/workspace"
	require.NoError(t, createWorkspace(t, storage.Debug, workspace))

	order := Order{
		Ordinal:     7,
		Seed:        12345,
		PRNGImpl:    prng.Xorwow,
		StorageImpl: storage.Debug,
		Workspace:   workspace,
		TraceDir:    dir,
		WriteCount:  20,
		ReadCount:   40,
	}

	var stats []report.Stat
	emit := func(s report.Stat) { stats = append(stats, s) }

	require.NoError(t, Run(order, barrier.NewLocal(1), emit))

	var writes, reads, failures int
	for _, s := range stats {
		switch s.Phase {
		case report.Write:
			writes++
		case report.Read:
			reads++
		}
		if !s.OK {
			failures++
		}
	}

	assert.Equal(t, 20, writes)
	assert.Equal(t, 40, reads)
	assert.Equal(t, 0, failures)

	_, err := os.Stat(dir + "/7.trc")
	assert.NoError(t, err)
}

func TestRunWithDebugPRNGIsReproducible(t *testing.T) {
	dir := t.TempDir()
	workspace := dir + "/workspace"
	require.NoError(t, createWorkspace(t, storage.Debug, workspace))

	order := Order{
		Ordinal:     0,
		Seed:        1,
		PRNGImpl:    prng.Debug,
		StorageImpl: storage.Debug,
		Workspace:   workspace,
		TraceDir:    dir,
		WriteCount:  5,
		ReadCount:   5,
	}

	var stats []report.Stat
	require.NoError(t, Run(order, barrier.NewLocal(1), func(s report.Stat) { stats = append(stats, s) }))

	for _, s := range stats {
		assert.True(t, s.OK)
	}
}

func TestRunReportsWriteFailureWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	workspace := dir + "/workspace"
	require.NoError(t, createWorkspace(t, storage.Debug, workspace))

	order := Order{
		Ordinal:     1,
		Seed:        99,
		PRNGImpl:    prng.Xorwow,
		StorageImpl: storage.Debug,
		Workspace:   workspace,
		TraceDir:    dir,
		WriteCount:  3,
		ReadCount:   3,
	}

	// Occupy the identity of the first object this worker will write,
	// so that its exclusive-create write fails.
	p := prng.New(order.PRNGImpl, order.Seed)
	sample.New(p)
	firstID := p.Peek()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, storage.ObjectName(order.Ordinal, firstID)), []byte("taken"), 0644))

	var writeFailures int
	require.NoError(t, Run(order, barrier.NewLocal(1), func(s report.Stat) {
		if s.Phase == report.Write && !s.OK {
			writeFailures++
		}
	}))
	assert.Equal(t, 1, writeFailures)
}
