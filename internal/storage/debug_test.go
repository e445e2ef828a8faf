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
)

func TestDebugWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDebugBackend(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))
	defer b.Destroy()

	s := sample.New(prng.New(prng.Debug, 123))
	require.NoError(t, b.Write(7, 8, s))

	readBack := sample.New(prng.New(prng.Debug, 0))
	require.NoError(t, b.Read(7, 8, readBack))
	assert.True(t, readBack.Validate(prng.New(prng.Debug, 123)))
}

func TestDebugObjectNameIsFlat(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDebugBackend(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))
	defer b.Destroy()

	s := sample.New(prng.New(prng.Debug, 1))
	require.NoError(t, b.Write(0x11223344, 0xaabbccdd, s))

	require.FileExists(t, filepath.Join(workspace, "11223344-aabbccdd"))
}

func TestDebugExclusiveCreateRejectsSecondWrite(t *testing.T) {
	dir := t.TempDir()
	workspace := filepath.Join(dir, "ws")

	b := newDebugBackend(noopRecorder{}, time.Now())
	require.NoError(t, b.Create(workspace, nil))
	defer b.Destroy()

	s1 := sample.New(prng.New(prng.Debug, 1))
	require.NoError(t, b.Write(1, 1, s1))

	s2 := sample.New(prng.New(prng.Debug, 2))
	assert.Error(t, b.Write(1, 1, s2))
}
