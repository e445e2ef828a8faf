// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// debugBackend is DIRTREE without the directory fan-out: every object
// lands directly in the workspace as CCCCCCCC-OOOOOOOO. It exists for
// small runs and for exercising the storage contract without the
// fan-out machinery getting in the way.
type debugBackend struct {
	workspace string
	tracer    trace.Recorder
	start     time.Time
}

func newDebugBackend(tracer trace.Recorder, start time.Time) *debugBackend {
	return &debugBackend{tracer: tracer, start: start}
}

func (d *debugBackend) Create(workspace string, argv []string) error {
	if _, err := os.Stat(workspace); err == nil {
		return fmt.Errorf("debug: workspace %q already exists", workspace)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("debug: stat workspace %q: %w", workspace, err)
	}

	if err := os.Mkdir(workspace, 0755); err != nil {
		return fmt.Errorf("debug: create workspace %q: %w", workspace, err)
	}

	d.workspace = workspace
	return nil
}

// Open attaches to a workspace a supervisor has already created with
// Create.
func (d *debugBackend) Open(workspace string, argv []string) error {
	if _, err := os.Stat(workspace); err != nil {
		return fmt.Errorf("debug: workspace %q: %w", workspace, err)
	}
	d.workspace = workspace
	return nil
}

func (d *debugBackend) Destroy() error {
	if d.workspace == "" {
		return nil
	}
	logger.Infof("debug: removing workspace %v\n", d.workspace)
	if err := os.RemoveAll(d.workspace); err != nil {
		return fmt.Errorf("debug: remove workspace %q: %w", d.workspace, err)
	}
	d.workspace = ""
	return nil
}

func (d *debugBackend) Write(clientID, objID uint32, s *sample.Sample) error {
	filename := filepath.Join(d.workspace, ObjectName(clientID, objID))

	start := time.Now()
	fd, err := openFile(filename, oCreat|oExcl|oWronly, 0644)
	if err != nil {
		return fmt.Errorf("debug: create %v: %w", filename, err)
	}

	data := s.Data()
	for len(data) > 0 {
		n, werr := fd.write(data)
		if werr != nil {
			fd.close()
			return fmt.Errorf("debug: write %v: %w", filename, werr)
		}
		data = data[n:]
	}

	if err := fd.close(); err != nil {
		return fmt.Errorf("debug: close %v: %w", filename, err)
	}

	d.tracer.Trace(trace.OpWrite, start.Sub(d.start), time.Since(start), ObjectName(clientID, objID))
	return nil
}

func (d *debugBackend) Read(clientID, objID uint32, s *sample.Sample) error {
	filename := filepath.Join(d.workspace, ObjectName(clientID, objID))

	start := time.Now()
	fd, err := openFile(filename, oRdonly, 0644)
	if err != nil {
		return fmt.Errorf("debug: open %v: %w", filename, err)
	}
	defer fd.close()

	size, err := fd.size()
	if err != nil {
		return fmt.Errorf("debug: stat %v: %w", filename, err)
	}

	buf := make([]byte, size)
	remaining := buf
	for len(remaining) > 0 {
		n, rerr := fd.read(remaining)
		if rerr != nil {
			return fmt.Errorf("debug: read %v: %w", filename, rerr)
		}
		if n == 0 {
			return fmt.Errorf("debug: short read on %v", filename)
		}
		remaining = remaining[n:]
	}

	s.Read(buf)
	d.tracer.Trace(trace.OpRead, start.Sub(d.start), time.Since(start), ObjectName(clientID, objID))
	return nil
}
