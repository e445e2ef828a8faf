// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build linux

package storage

import (
	"fmt"
	"time"

	"github.com/ceph/go-ceph/rados"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/sample"
	"github.com/softiron/motifbench/internal/trace"
)

// radosBackend talks raw RADOS to a Ceph cluster via librados, using
// the workspace string as "monitor,username,key,pool" (comma
// separated) so Create can stay a single-string Backend method rather
// than growing a bespoke config type for just this backend.
type radosBackend struct {
	client *rados.Conn
	ioctx  *rados.IOContext
	tracer trace.Recorder
	start  time.Time
}

func newRadosBackend(tracer trace.Recorder, start time.Time) (*radosBackend, error) {
	return &radosBackend{tracer: tracer, start: start}, nil
}

type radosConfig struct {
	monitor  string
	username string
	key      string
	pool     string
}

func parseRadosWorkspace(workspace string) (radosConfig, error) {
	var cfg radosConfig
	fields := splitN(workspace, ',', 4)
	if len(fields) != 4 {
		return cfg, fmt.Errorf("rados: workspace must be \"monitor,username,key,pool\", got %q", workspace)
	}
	cfg.monitor, cfg.username, cfg.key, cfg.pool = fields[0], fields[1], fields[2], fields[3]
	return cfg, nil
}

func splitN(s string, sep byte, n int) []string {
	var out []string
	start := 0
	for i := 0; i < len(s) && len(out) < n-1; i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func (b *radosBackend) Create(workspace string, argv []string) error {
	return b.connect(workspace, true)
}

// Open connects to the same pool Create already validated. RADOS has
// no "workspace already created" concept beyond pool existence, which
// Create already checked, so Open skips that check but otherwise
// connects identically: every worker needs its own Conn/IOContext.
func (b *radosBackend) Open(workspace string, argv []string) error {
	return b.connect(workspace, false)
}

func (b *radosBackend) connect(workspace string, checkPoolExists bool) error {
	cfg, err := parseRadosWorkspace(workspace)
	if err != nil {
		return err
	}

	client, err := rados.NewConnWithUser(cfg.username)
	if err != nil {
		return fmt.Errorf("rados: new connection: %w", err)
	}

	if err := client.SetConfigOption("mon_host", cfg.monitor); err != nil {
		return fmt.Errorf("rados: set mon_host: %w", err)
	}
	if err := client.SetConfigOption("key", cfg.key); err != nil {
		return fmt.Errorf("rados: set key: %w", err)
	}

	if logger.IsTrace() {
		client.SetConfigOption("debug_rados", "20")
		client.SetConfigOption("debug_objecter", "20")
		client.SetConfigOption("log_to_stderr", "true")
	}

	logger.Infof("rados: connecting to %v as %v\n", cfg.monitor, cfg.username)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("rados: connect: %w", err)
	}

	if checkPoolExists {
		pools, err := client.ListPools()
		if err != nil {
			client.Shutdown()
			return fmt.Errorf("rados: list pools: %w", err)
		}

		found := false
		for _, p := range pools {
			if p == cfg.pool {
				found = true
				break
			}
		}
		if !found {
			client.Shutdown()
			return fmt.Errorf("rados: no such pool %q", cfg.pool)
		}
	}

	ioctx, err := client.OpenIOContext(cfg.pool)
	if err != nil {
		client.Shutdown()
		return fmt.Errorf("rados: open pool %q: %w", cfg.pool, err)
	}

	b.client = client
	b.ioctx = ioctx
	return nil
}

func (b *radosBackend) Destroy() error {
	if b.ioctx != nil {
		b.ioctx.Destroy()
		b.ioctx = nil
	}
	if b.client != nil {
		b.client.Shutdown()
		b.client = nil
	}
	return nil
}

func (b *radosBackend) Write(clientID, objID uint32, s *sample.Sample) error {
	name := ObjectName(clientID, objID)
	start := time.Now()

	// Create fails if the object already exists, giving us the
	// exclusive-create semantics every backend must honour.
	if err := b.ioctx.Create(name, rados.CreateExclusive); err != nil {
		return fmt.Errorf("rados: create %v: %w", name, err)
	}

	if err := b.ioctx.WriteFull(name, s.Data()); err != nil {
		return fmt.Errorf("rados: write %v: %w", name, err)
	}

	b.tracer.Trace(trace.OpWrite, start.Sub(b.start), time.Since(start), name)
	return nil
}

func (b *radosBackend) Read(clientID, objID uint32, s *sample.Sample) error {
	name := ObjectName(clientID, objID)
	start := time.Now()

	stat, err := b.ioctx.Stat(name)
	if err != nil {
		return fmt.Errorf("rados: stat %v: %w", name, err)
	}

	buf := make([]byte, stat.Size)
	n, err := b.ioctx.Read(name, buf, 0)
	if err != nil {
		return fmt.Errorf("rados: read %v: %w", name, err)
	}
	if uint64(n) != stat.Size {
		return fmt.Errorf("rados: short read on %v: wanted %v, got %v", name, stat.Size, n)
	}

	s.Read(buf)
	b.tracer.Trace(trace.OpRead, start.Sub(b.start), time.Since(start), name)
	return nil
}
