// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package trace implements the fixed-size circular trace buffer that
// every storage backend feeds: one record per I/O, drained to disk in
// blocks by a background goroutine so the hot path never blocks on
// file I/O.
package trace

import (
	"io"
	"sync"
	"time"

	"github.com/softiron/motifbench/internal/logger"
)

// NEnt is the number of slots in the ring. Chosen, as in the harness
// this package is ported from, to comfortably outrun the drain
// goroutine under normal load while keeping the backing array small.
const NEnt = 65536

// Block is the number of entries that make up one 8KiB flush chunk.
// 8192 doesn't divide evenly by EntrySize; the division truncates,
// exactly as the integer arithmetic in the original implementation
// does.
const Block = 8192 / EntrySize

// Recorder is the interface storage backends and workers record
// operations through. It exists so code that only needs to emit trace
// entries doesn't need to depend on the concrete Ring type.
type Recorder interface {
	Trace(op Op, ts, duration time.Duration, tag string)
}

type request int

const (
	reqNone request = iota
	reqFlush
	reqExit
)

// Ring is an N_ENT-slot circular buffer of trace entries. A single
// producer (any number of goroutines calling Trace concurrently,
// serialised by mu) appends entries; a single background goroutine
// drains completed blocks to disk.
//
// nextFlush and lastFlush count entries rather than naming slots:
// when the producer requests a flush, it sets nextFlush to the number
// of entries written so far, so the flush runs through and including
// the slot it just wrote, and the drainer writes the entries numbered
// [lastFlush, nextFlush).
type Ring struct {
	mu   sync.Mutex
	cond *sync.Cond

	entries [NEnt]Entry

	writeIdx   uint32 // next slot the producer will write, mod NEnt
	written    uint64 // total entries ever written, for wrap detection
	lastFlush  uint64 // total entries flushed so far
	nextFlush  uint64 // exclusive target: flush up to (not including) this count
	req        request
	start      time.Time
	w          io.Writer
	done       chan struct{}
	err        error
}

// NewRing creates a Ring that drains to w. start is stored with the
// ring but not used by Trace, whose callers pass offsets they have
// already computed.
func NewRing(w io.Writer, start time.Time) *Ring {
	r := &Ring{
		w:     w,
		start: start,
		done:  make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Start launches the background drain goroutine. Call once.
func (r *Ring) Start() {
	go r.drainLoop()
}

// Trace records one entry, deriving ts and duration relative to the
// ring's start time is the caller's job: callers pass already-computed
// offsets so that the clock read for "now" happens as close to the
// I/O as possible, not after contending for the ring's lock.
func (r *Ring) Trace(op Op, ts, duration time.Duration, tag string) {
	e := NewEntry(op, ts, duration, tag)

	r.mu.Lock()
	slot := r.writeIdx
	r.entries[slot] = e
	r.writeIdx = (r.writeIdx + 1) % NEnt
	r.written++

	if r.written%Block == 0 {
		r.nextFlush = r.written
		if r.req == reqNone {
			r.req = reqFlush
		}
		r.cond.Signal()
	}
	r.mu.Unlock()
}

// Fini flushes every entry recorded before this call and stops the
// drain goroutine. Entries recorded concurrently with or after Fini
// are not guaranteed to be flushed, matching trace_fini's contract in
// the reference implementation: it only flushes what was pending at
// the moment it was called.
func (r *Ring) Fini() error {
	r.mu.Lock()
	r.nextFlush = r.written
	r.req = reqExit
	r.cond.Signal()
	r.mu.Unlock()

	<-r.done
	return r.err
}

// Flushed reports how many entries have been durably flushed so far,
// for tests.
func (r *Ring) Flushed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFlush
}

func (r *Ring) drainLoop() {
	defer close(r.done)

	for {
		r.mu.Lock()
		for r.req == reqNone {
			r.cond.Wait()
		}
		req := r.req
		target := r.nextFlush
		r.req = reqNone
		r.mu.Unlock()

		if err := r.flushThrough(target); err != nil && r.err == nil {
			r.err = err
			logger.Errorf("trace: flush failed: %v\n", err)
		}

		if req == reqExit {
			return
		}
	}
}

// flushThrough writes every entry in [lastFlush, target) to the
// sink, handling wrap-around: if the ring has wrapped so far that
// un-flushed entries were overwritten, the oldest surviving entries
// are flushed instead and the loss is logged. The ring favours
// continuing to accept new writes over blocking the producer on a
// slow sink, so overwrite-on-wrap is a deliberate policy, not a bug.
func (r *Ring) flushThrough(target uint64) error {
	r.mu.Lock()
	from := r.lastFlush
	written := r.written
	r.mu.Unlock()

	if target <= from {
		return nil
	}

	if written-from > NEnt {
		lost := (written - from) - NEnt
		logger.Warnf("trace: ring overrun, %v entries overwritten before they could be flushed\n", lost)
		from = written - NEnt
		if from > target {
			target = from
		}
	}

	buf := make([]byte, EntrySize)
	for seq := from; seq < target; seq++ {
		idx := seq % NEnt

		r.mu.Lock()
		e := r.entries[idx]
		r.mu.Unlock()

		e.Encode(buf)
		if _, err := r.w.Write(buf); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.lastFlush = target
	r.mu.Unlock()

	return nil
}
