// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// dirTree is the hierarchical local-filesystem backend: objects are
// addressed under workspace/CCCC/CCCC/OOOO/CCCCCCCC-OOOOOOOO, three
// levels of fan-out deep, so that no single directory ever holds more
// than 64Ki entries regardless of how many clients or objects a run
// uses.
type dirTree struct {
	workspace string
	tracer    trace.Recorder
	start     time.Time
}

func newDirTree(tracer trace.Recorder, start time.Time) *dirTree {
	return &dirTree{tracer: tracer, start: start}
}

func dirTreePath(clientID, objID uint32) string {
	return filepath.Join(
		fmt.Sprintf("%04x", clientID&0xFFFF),
		fmt.Sprintf("%04x", (clientID>>16)&0xFFFF),
		fmt.Sprintf("%04x", (objID>>16)&0xFFFF),
		ObjectName(clientID, objID),
	)
}

func (d *dirTree) Create(workspace string, argv []string) error {
	if _, err := os.Stat(workspace); err == nil {
		return fmt.Errorf("dirtree: workspace %q already exists", workspace)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("dirtree: stat workspace %q: %w", workspace, err)
	}

	if err := os.Mkdir(workspace, 0755); err != nil {
		return fmt.Errorf("dirtree: create workspace %q: %w", workspace, err)
	}

	d.workspace = workspace
	return nil
}

// Open attaches to a workspace a supervisor has already created with
// Create: each worker process gets its own dirTree handle onto the
// same directory, since Go processes (and, in process mode, OS
// processes) can't share one Go value.
func (d *dirTree) Open(workspace string, argv []string) error {
	if _, err := os.Stat(workspace); err != nil {
		return fmt.Errorf("dirtree: workspace %q: %w", workspace, err)
	}
	d.workspace = workspace
	return nil
}

func (d *dirTree) Destroy() error {
	if d.workspace == "" {
		return nil
	}
	logger.Infof("dirtree: removing workspace %v\n", d.workspace)
	if err := os.RemoveAll(d.workspace); err != nil {
		return fmt.Errorf("dirtree: remove workspace %q: %w", d.workspace, err)
	}
	d.workspace = ""
	return nil
}

// pathgen creates the three directory levels that precede an object's
// file, tolerating any of them already existing: a concurrent worker
// racing us to create the same directory is not an error.
func (d *dirTree) pathgen(clientID, objID uint32) error {
	rel := filepath.Join(
		fmt.Sprintf("%04x", clientID&0xFFFF),
		fmt.Sprintf("%04x", (clientID>>16)&0xFFFF),
		fmt.Sprintf("%04x", (objID>>16)&0xFFFF),
	)

	path := d.workspace
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		path = filepath.Join(path, part)
		if err := os.Mkdir(path, 0755); err != nil && !os.IsExist(err) {
			return err
		}
	}
	return nil
}

func (d *dirTree) Write(clientID, objID uint32, s *sample.Sample) error {
	filename := filepath.Join(d.workspace, dirTreePath(clientID, objID))

	start := time.Now()
	fd, err := openFile(filename, oCreat|oExcl|oWronly, 0644)
	if err != nil {
		if genErr := d.pathgen(clientID, objID); genErr != nil {
			return fmt.Errorf("dirtree: create directories for %v: %w", filename, genErr)
		}
		fd, err = openFile(filename, oCreat|oExcl|oWronly, 0644)
		if err != nil {
			return fmt.Errorf("dirtree: create %v: %w", filename, err)
		}
	}

	data := s.Data()
	for len(data) > 0 {
		n, werr := fd.write(data)
		if werr != nil {
			fd.close()
			return fmt.Errorf("dirtree: write %v: %w", filename, werr)
		}
		data = data[n:]
	}

	if err := fd.close(); err != nil {
		return fmt.Errorf("dirtree: close %v: %w", filename, err)
	}

	d.tracer.Trace(trace.OpWrite, start.Sub(d.start), time.Since(start), ObjectName(clientID, objID))
	return nil
}

func (d *dirTree) Read(clientID, objID uint32, s *sample.Sample) error {
	filename := filepath.Join(d.workspace, dirTreePath(clientID, objID))

	start := time.Now()
	fd, err := openFile(filename, oRdonly, 0644)
	if err != nil {
		return fmt.Errorf("dirtree: open %v: %w", filename, err)
	}
	defer fd.close()

	size, err := fd.size()
	if err != nil {
		return fmt.Errorf("dirtree: stat %v: %w", filename, err)
	}

	buf := make([]byte, size)
	remaining := buf
	for len(remaining) > 0 {
		n, rerr := fd.read(remaining)
		if rerr != nil {
			return fmt.Errorf("dirtree: read %v: %w", filename, rerr)
		}
		if n == 0 {
			return fmt.Errorf("dirtree: short read on %v", filename)
		}
		remaining = remaining[n:]
	}

	s.Read(buf)
	d.tracer.Trace(trace.OpRead, start.Sub(d.start), time.Since(start), ObjectName(clientID, objID))
	return nil
}
