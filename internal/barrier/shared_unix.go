// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build darwin || linux

package barrier

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sharedRegionSize is padded well past the header's three int32
// fields to keep them on their own cache line and leave room to grow
// without a layout break.
const sharedRegionSize = 64

// Shared is a Barrier for parties that are separate OS processes
// (the --processes worker mode). It substitutes for the POSIX
// named-semaphore-plus-shared-memory pairing the original C harness
// uses: an mmap'd region plays the role of the shared memory, a
// CAS-based spinlock plays the role of the "count mutex", and a
// generation counter the waiters poll with a short backoff plays the
// role of the "gate" semaphore.
type Shared struct {
	data []byte
	n    int32
	file *os.File
	path string
}

const (
	offMutex = 0
	offCount = 4
	offGen   = 8
)

func (s *Shared) mutexPtr() *int32  { return (*int32)(unsafe.Pointer(&s.data[offMutex])) }
func (s *Shared) countPtr() *int32  { return (*int32)(unsafe.Pointer(&s.data[offCount])) }
func (s *Shared) genPtr() *uint32   { return (*uint32)(unsafe.Pointer(&s.data[offGen])) }

// NewShared opens (creating if absent) the backing file at path and
// maps it as a shared, anonymous-to-other-processes-only-by-path
// region sized for n parties. Every process taking part in the same
// barrier round must pass the same path; the first to create the
// file leaves it zero-filled, which is a valid "no one has arrived
// yet, generation zero" initial state, so no separate init step is
// needed.
func NewShared(path string, n int) (*Shared, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("barrier: open %v: %w", path, err)
	}

	if err := f.Truncate(sharedRegionSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("barrier: truncate %v: %w", path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, sharedRegionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("barrier: mmap %v: %w", path, err)
	}

	return &Shared{data: data, n: int32(n), file: f, path: path}, nil
}

func (s *Shared) lock() {
	for !atomic.CompareAndSwapInt32(s.mutexPtr(), 0, 1) {
		time.Sleep(time.Microsecond)
	}
}

func (s *Shared) unlock() {
	atomic.StoreInt32(s.mutexPtr(), 0)
}

// Wait increments the shared arrival count under the spinlock; the
// party that brings it to n resets the count for the next round and
// bumps the generation, which every waiter is polling on. Waiters
// never touch the mutex while polling, so a slow or dead waiter can't
// wedge the spinlock for anyone still arriving.
func (s *Shared) Wait() error {
	s.lock()
	target := atomic.LoadUint32(s.genPtr()) + 1
	count := atomic.AddInt32(s.countPtr(), 1)

	if count >= s.n {
		atomic.StoreInt32(s.countPtr(), 0)
		atomic.StoreUint32(s.genPtr(), target)
		s.unlock()
		return nil
	}
	s.unlock()

	for atomic.LoadUint32(s.genPtr()) < target {
		time.Sleep(time.Millisecond)
	}
	return nil
}

// Close unmaps the shared region and removes the backing file. Only
// one party should call Close per round once every Wait has
// returned; callers coordinate this externally (the supervisor, which
// created the file, is the natural owner).
func (s *Shared) Close() error {
	if err := unix.Munmap(s.data); err != nil {
		s.file.Close()
		return fmt.Errorf("barrier: munmap: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("barrier: close %v: %w", s.path, err)
	}
	return os.Remove(s.path)
}
