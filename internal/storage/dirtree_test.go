// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

type noopRecorder struct{}

func (noopRecorder) Trace(op trace.Op, ts, duration time.Duration, tag string) {}

func TestDirTreePathContract(t *testing.T) {
	got := dirTreePath(0x11223344, 0xAABBCCDD)
	want := filepath.Join("3344", "1122", "aabb", "11223344-aabbccdd")
	assert.Equal(t, want, got)
}

func TestDirTreeWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDirTree(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))
	defer b.Destroy()

	s := sample.New(prng.New(prng.Xorwow, 42))
	require.NoError(t, b.Write(1, 2, s))

	readBack := sample.New(prng.New(prng.Debug, 0))
	require.NoError(t, b.Read(1, 2, readBack))

	assert.True(t, readBack.Validate(prng.New(prng.Xorwow, 42)))
}

func TestDirTreeExclusiveCreateRejectsSecondWrite(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDirTree(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))
	defer b.Destroy()

	s1 := sample.New(prng.New(prng.Debug, 1))
	require.NoError(t, b.Write(1, 2, s1))

	s2 := sample.New(prng.New(prng.Debug, 2))
	err := b.Write(1, 2, s2)
	assert.Error(t, err)
}

func TestDirTreeDestroyRemovesWorkspace(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDirTree(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))

	s := sample.New(prng.New(prng.Debug, 9))
	require.NoError(t, b.Write(3, 4, s))

	require.NoError(t, b.Destroy())

	other := newDirTree(noopRecorder{}, time.Now())
	other.workspace = workspace
	err := other.Read(3, 4, sample.New(prng.New(prng.Debug, 0)))
	assert.Error(t, err)
}
