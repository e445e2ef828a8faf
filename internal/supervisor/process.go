// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/softiron/motifbench/internal/barrier"
	"github.com/softiron/motifbench/internal/comms"
	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/report"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/softiron/motifbench/internal/worker"
)

// WorkerSubcommand is the hidden argv[1] the supervisor re-execs
// itself with in process mode; cmd/motifbench recognises it and
// drives RunWorkerSubprocess instead of the usual CLI dispatch.
const WorkerSubcommand = "__worker"

type child struct {
	ordinal uint32
	cmd     *exec.Cmd
	conn    *comms.MessageConnection
}

// runProcesses is the --processes worker-execution strategy: each
// worker is this same binary, re-exec'd as "motifbench __worker",
// fed its worker.Order over a pipe, and synchronised across the real OS
// processes via barrier.Shared rather than the in-process
// barrier.Local that goroutine mode uses.
func runProcesses(cfg Config, rawArgs []string, out io.Writer) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("supervisor: resolving own executable: %w", err)
	}

	if err := os.MkdirAll(cfg.TraceDir, 0755); err != nil {
		return fmt.Errorf("supervisor: creating trace directory: %w", err)
	}

	setup, err := storage.New(cfg.StorageImpl, noopRecorder{}, time.Now())
	if err != nil {
		return fmt.Errorf("supervisor: selecting backend: %w", err)
	}
	if err := setup.Create(cfg.Workspace, cfg.Argv); err != nil {
		return fmt.Errorf("supervisor: creating workspace: %w", err)
	}
	defer func() {
		if err := setup.Destroy(); err != nil {
			logger.Errorf("supervisor: destroying workspace: %v\n", err)
		}
	}()

	rep, err := report.New(out, rawArgs)
	if err != nil {
		return fmt.Errorf("supervisor: opening report: %w", err)
	}

	barrierPath := filepath.Join(os.TempDir(), fmt.Sprintf("motifbench-barrier-%d", os.Getpid()))
	b, err := barrier.NewShared(barrierPath, int(cfg.Parallel)+1)
	if err != nil {
		return fmt.Errorf("supervisor: creating shared barrier: %w", err)
	}
	defer b.Close()

	children := make([]*child, cfg.Parallel)
	for ord := uint32(0); ord < cfg.Parallel; ord++ {
		c, err := spawnChild(exe, barrierPath, cfg, ord)
		if err != nil {
			for _, already := range children[:ord] {
				already.cmd.Process.Kill()
			}
			return fmt.Errorf("supervisor: spawning worker %d: %w", ord, err)
		}
		children[ord] = c
	}

	if err := b.Wait(); err != nil {
		return fmt.Errorf("supervisor: waiting on start barrier: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make([]worker.Result, cfg.Parallel)

	for i, c := range children {
		wg.Add(1)
		go func(i int, c *child) {
			defer wg.Done()
			results[i] = drainChild(c, rep, &mu)
		}(i, c)
	}
	wg.Wait()

	ordinals := make([]uint32, cfg.Parallel)
	for i := range ordinals {
		ordinals[i] = uint32(i)
	}

	rep.Analyse(uint64(averageObjectSize), cfg.RampUp, cfg.RampDown, ordinals)
	rep.DisplayAnalyses(os.Stdout)

	if err := rep.Close(); err != nil {
		return fmt.Errorf("supervisor: closing report: %w", err)
	}

	return firstWorkerError(results)
}

func spawnChild(exe, barrierPath string, cfg Config, ordinal uint32) (*child, error) {
	cmd := exec.Command(exe, WorkerSubcommand, barrierPath, fmt.Sprintf("%d", cfg.Parallel+1))
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	conn := comms.NewMessageConnection(comms.NewPipeConnection(stdout, stdin), comms.MakeGobEncoderFactory())

	order := worker.Order{
		Ordinal:     ordinal,
		Seed:        deriveSeed(cfg.Seed, ordinal),
		PRNGImpl:    cfg.PRNGImpl,
		StorageImpl: cfg.StorageImpl,
		Workspace:   cfg.Workspace,
		Argv:        cfg.Argv,
		TraceDir:    cfg.TraceDir,
		WriteCount:  cfg.WriteCount,
		ReadCount:   cfg.ReadCount,
		Bandwidth:   cfg.Bandwidth,
		RampUp:      cfg.RampUp,
		RampDown:    cfg.RampDown,
	}

	if err := conn.Send(MsgOrder, order); err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("sending work order: %w", err)
	}

	return &child{ordinal: ordinal, cmd: cmd, conn: conn}, nil
}

// drainChild receives MsgStat messages from a worker subprocess,
// forwarding each to rep, until the worker's terminating MsgResult
// arrives, then waits for the process to exit.
func drainChild(c *child, rep *report.Report, mu *sync.Mutex) worker.Result {
	for {
		msg, err := c.conn.Receive()
		if err != nil {
			c.cmd.Wait()
			return worker.Result{Ordinal: c.ordinal, Err: fmt.Sprintf("connection to worker: %v", err)}
		}

		switch msg.ID() {
		case MsgStat:
			var s report.Stat
			msg.Data(&s)
			mu.Lock()
			if err := rep.AddStat(s); err != nil {
				logger.Errorf("supervisor: writing stat: %v\n", err)
			}
			mu.Unlock()

		case MsgResult:
			var res worker.Result
			msg.Data(&res)
			if err := c.cmd.Wait(); err != nil {
				logger.Warnf("supervisor: worker %d process exited uncleanly: %v\n", c.ordinal, err)
			}
			if res.Err != "" {
				mu.Lock()
				rep.AddError(fmt.Errorf("worker %d: %s", c.ordinal, res.Err))
				mu.Unlock()
			}
			return res

		default:
			logger.Warnf("supervisor: worker %d sent unexpected message id %d\n", c.ordinal, msg.ID())
		}
	}
}

// RunWorkerSubprocess is the entry point cmd/motifbench dispatches to
// when it re-execs itself as "motifbench __worker". It reads its
// worker.Order from stdin, runs the workload, streaming Stats back over
// stdout as it goes, and finally reports its Result. parties is the
// total number of processes (N workers plus the supervisor) that will
// wait on barrierPath; every process in the round must agree on it.
func RunWorkerSubprocess(barrierPath string, parties int) error {
	conn := comms.NewMessageConnection(comms.NewPipeConnection(os.Stdin, os.Stdout), comms.MakeGobEncoderFactory())

	msg, err := conn.Receive()
	if err != nil {
		return fmt.Errorf("worker: receiving order: %w", err)
	}
	if msg.ID() != MsgOrder {
		return fmt.Errorf("worker: expected order message, got id %d", msg.ID())
	}

	var order worker.Order
	msg.Data(&order)

	b, err := barrier.NewShared(barrierPath, parties)
	if err != nil {
		return fmt.Errorf("worker: opening shared barrier: %w", err)
	}

	emit := func(s report.Stat) {
		if err := conn.Send(MsgStat, s); err != nil {
			logger.Errorf("worker %d: sending stat: %v\n", order.Ordinal, err)
		}
	}

	runErr := worker.Run(order, b, emit)

	res := worker.Result{Ordinal: order.Ordinal}
	if runErr != nil {
		res.Err = runErr.Error()
	}
	if err := conn.Send(MsgResult, res); err != nil {
		return fmt.Errorf("worker: sending result: %w", err)
	}

	return runErr
}
