// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build windows

package barrier

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Shared is the Windows counterpart to the unix mmap-backed barrier:
// a named file mapping plays the role of the shared memory segment,
// keyed by handle name instead of a filesystem path, per the
// precedent sibench's own windows.go sets for platform-specific
// storage plumbing.
type Shared struct {
	handle windows.Handle
	addr   uintptr
	n      int32
	name   string
}

func NewShared(name string, n int) (*Shared, error) {
	namep, err := windows.UTF16PtrFromString("motifbench-barrier-" + name)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, sharedRegionSize, namep)
	if err != nil {
		return nil, fmt.Errorf("barrier: CreateFileMapping: %w", err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, sharedRegionSize)
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("barrier: MapViewOfFile: %w", err)
	}

	return &Shared{handle: h, addr: addr, n: int32(n), name: name}, nil
}

const sharedRegionSize = 64

const (
	offMutex = 0
	offCount = 4
	offGen   = 8
)

func (s *Shared) mutexPtr() *int32 { return (*int32)(unsafe.Pointer(s.addr + offMutex)) }
func (s *Shared) countPtr() *int32 { return (*int32)(unsafe.Pointer(s.addr + offCount)) }
func (s *Shared) genPtr() *uint32  { return (*uint32)(unsafe.Pointer(s.addr + offGen)) }

func (s *Shared) lock() {
	for !atomic.CompareAndSwapInt32(s.mutexPtr(), 0, 1) {
		time.Sleep(time.Microsecond)
	}
}

func (s *Shared) unlock() {
	atomic.StoreInt32(s.mutexPtr(), 0)
}

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

func (s *Shared) Close() error {
	if err := windows.UnmapViewOfFile(s.addr); err != nil {
		windows.CloseHandle(s.handle)
		return fmt.Errorf("barrier: UnmapViewOfFile: %w", err)
	}
	return windows.CloseHandle(s.handle)
}
