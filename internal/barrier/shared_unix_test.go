// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build darwin || linux

package barrier

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedReleasesAllPartiesTogether(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barrier")
	const n = 6

	var released int32
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			b, err := NewShared(path, n)
			require.NoError(t, err)
			defer b.file.Close()

			require.NoError(t, b.Wait())
			atomic.AddInt32(&released, 1)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shared barrier did not release all parties")
	}

	assert.EqualValues(t, n, atomic.LoadInt32(&released))
}

func TestSharedSupportsAFreshRoundAfterReinit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "barrier")

	b1, err := NewShared(path, 1)
	require.NoError(t, err)
	require.NoError(t, b1.Wait())

	b2, err := NewShared(path, 1)
	require.NoError(t, err)
	require.NoError(t, b2.Wait())

	require.NoError(t, b2.Close())
}
