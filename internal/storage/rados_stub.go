// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build !linux

package storage

import (
	"fmt"
	"runtime"
	"time"

	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// radosBackend's real implementation depends on librados via cgo,
// which is only wired up for the linux build. sibench itself carried
// the same gap for its RBD/RADOS connections on darwin and windows.
type radosBackend struct{}

func newRadosBackend(tracer trace.Recorder, start time.Time) (*radosBackend, error) {
	return nil, fmt.Errorf("rados: not implemented on %q", runtime.GOOS)
}

func (b *radosBackend) Create(workspace string, argv []string) error { return nil }
func (b *radosBackend) Open(workspace string, argv []string) error   { return nil }
func (b *radosBackend) Destroy() error                               { return nil }
func (b *radosBackend) Write(clientID, objID uint32, s *sample.Sample) error {
	return fmt.Errorf("rados: not implemented on %q", runtime.GOOS)
}
func (b *radosBackend) Read(clientID, objID uint32, s *sample.Sample) error {
	return fmt.Errorf("rados: not implemented on %q", runtime.GOOS)
}
