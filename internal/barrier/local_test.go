// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package barrier

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalReleasesAllPartiesTogether(t *testing.T) {
	const n = 8
	b := NewLocal(n)

	var released int32
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Wait())
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
	case <-time.After(time.Second):
		t.Fatal("barrier did not release all parties")
	}

	assert.EqualValues(t, n, atomic.LoadInt32(&released))
}

func TestLocalBlocksUntilAllArrive(t *testing.T) {
	const n = 3
	b := NewLocal(n)

	var arrived int32
	for i := 0; i < n-1; i++ {
		go func() {
			b.Wait()
			atomic.AddInt32(&arrived, 1)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&arrived), "barrier released early with fewer than n arrivals")

	b.Wait()
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, n-1, atomic.LoadInt32(&arrived))
}
