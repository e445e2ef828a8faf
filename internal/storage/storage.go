// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package storage abstracts over the backends a benchmark run can
// write its sample objects to and read them back from: a local
// hierarchical directory tree, a flat debug directory, a Ceph RADOS
// pool, and an S3-compatible bucket.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// Backend is the contract every storage implementation satisfies.
// Create and Destroy bracket a run. Each worker attaches its own
// Backend value with Open and calls Write and Read on it from a
// single goroutine; workers share the workspace, not the Backend
// value.
type Backend interface {
	// Create prepares the backend to receive objects: for file-based
	// backends this creates (and must not already exist) the
	// workspace directory; the S3 backend connects and creates the
	// bucket (which must not already exist), and the RADOS backend
	// connects and checks that the pool already exists. argv carries
	// backend-specific configuration. Called exactly once per run, by
	// whichever party owns workspace setup (the supervisor, in this
	// implementation) — see Open for how each worker attaches.
	Create(workspace string, argv []string) error

	// Open attaches a fresh Backend value to a workspace some other
	// Backend value has already Create'd. Every worker calls Open,
	// never Create, on its own backend instance: workers run in
	// parallel (as goroutines or, in process mode, separate OS
	// processes) and must not race to set up the same workspace.
	Open(workspace string, argv []string) error

	// Destroy tears down what Create set up. The DIRTREE and DEBUG
	// backends remove the workspace directory with every object in
	// it. The S3 backend deletes the bucket it created without first
	// deleting the objects in it; the RADOS backend only closes its
	// connection and leaves the pool and its objects in place. Called
	// once, by the same party that called Create.
	Destroy() error

	// Write stores S under the identity (clientID, objID). It must
	// fail if an object already exists at that identity: sibench
	// workloads never intentionally overwrite, and a silent
	// overwrite would mask a client/object id collision bug.
	Write(clientID, objID uint32, s *sample.Sample) error

	// Read loads the object at (clientID, objID) into s, for
	// subsequent validation against the PRNG sequence that produced
	// it.
	Read(clientID, objID uint32, s *sample.Sample) error
}

// Impl enumerates the available backend implementations.
type Impl int

const (
	DirTree Impl = iota
	Debug
	S3
	Rados
)

func (i Impl) String() string {
	switch i {
	case DirTree:
		return "DIRTREE"
	case Debug:
		return "DEBUG"
	case S3:
		return "S3"
	case Rados:
		return "RADOS"
	default:
		return "UNKNOWN"
	}
}

// Parse maps a configuration string (case-insensitive) onto an Impl.
func Parse(name string) (Impl, error) {
	switch strings.ToUpper(name) {
	case "DIRTREE":
		return DirTree, nil
	case "DEBUG":
		return Debug, nil
	case "S3":
		return S3, nil
	case "RADOS":
		return Rados, nil
	default:
		return 0, fmt.Errorf("storage: unknown backend %q", name)
	}
}

// New constructs a fresh, unconfigured Backend of the given kind. The
// caller must still call Create, or Open for a workspace that already
// exists, before using it. tracer receives a
// Trace entry for every Write and Read, timestamped relative to
// start.
func New(impl Impl, tracer trace.Recorder, start time.Time) (Backend, error) {
	switch impl {
	case DirTree:
		return newDirTree(tracer, start), nil
	case Debug:
		return newDebugBackend(tracer, start), nil
	case S3:
		return newS3Backend(tracer, start), nil
	case Rados:
		return newRadosBackend(tracer, start)
	default:
		return nil, fmt.Errorf("storage: unknown backend %v", impl)
	}
}

// ObjectName renders an object's identity the way every backend
// addresses it on the wire: clientID and objID as zero-padded 8-digit
// lowercase hex, joined by a hyphen.
func ObjectName(clientID, objID uint32) string {
	return fmt.Sprintf("%08x-%08x", clientID, objID)
}
