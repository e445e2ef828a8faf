// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package main

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/softiron/motifbench/internal/logger"
	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/softiron/motifbench/internal/supervisor"
	"github.com/softiron/motifbench/internal/trace"
)

// arguments is what DocOpt binds our command line into.
type arguments struct {
	Run      bool
	Tracefmt bool
	Verbose  bool

	Processes bool
	Prng      string
	Seed      string
	Storage   string

	Workspace  string
	Tracedir   string
	WriteCount string
	ReadCount  string
	Parallel   string
	Bandwidth  string
	RampUp     string
	RampDown   string
	JsonOutput string

	Csv   bool
	Trace string

	Args []string
}

func usage() string {
	return `motifbench - storage micro-benchmark harness.

Usage:
  motifbench run [-v] [--processes] [--prng NAME] [--seed N] [--storage NAME]
                 --workspace WS --tracedir DIR
                 [--write-count N] [--read-count N] [--parallel N]
                 [--bandwidth BW] [--ramp-up TIME] [--ramp-down TIME]
                 [--json-output FILE] [<args>...]
  motifbench tracefmt [--csv] <trace>
  motifbench -h | --help

Options:
  -h, --help                 Show this screen.
  -v, --verbose               Turn on debug logging.
  --processes                  Run workers as subprocesses instead of goroutines.
  --prng NAME                  PRNG variant: DEBUG or XORSHIFT.            [default: XORSHIFT]
  --seed N                     Base seed; 0 derives each worker's from the clock. [default: 0]
  --storage NAME                Backend: DEBUG, DIRTREE, S3 or RADOS.       [default: DIRTREE]
  --workspace WS                 Backend-specific workspace identifier.
  --tracedir DIR                  Directory receiving <ordinal>.trc files.
  --write-count N                  Objects per worker in the write phase.    [default: 1000]
  --read-count N                    Objects per worker in the read phase.    [default: 1000]
  --parallel N                        Number of workers.                     [default: 1]
  --bandwidth BW                       Per-worker bandwidth cap, bytes/sec; 0 disables. [default: 0]
  --ramp-up TIME                        Time (or seconds) excluded from the start of each phase's analysis. [default: 0]
  --ramp-down TIME                       Time (or seconds) excluded from the end of each phase's analysis.  [default: 0]
  --json-output FILE                      Write the JSON report here instead of stdout.
  --csv                                     tracefmt: print CSV instead of human-readable lines.
`
}

func dieOnError(err error, format string, a ...interface{}) {
	if err != nil {
		logger.Errorf(format+": %v\n", append(a, err)...)
		os.Exit(1)
	}
}

// main dispatches the hidden re-exec target the supervisor spawns
// under --processes (supervisor.WorkerSubcommand) to
// runWorkerSubcommand: it takes positional arguments that don't fit
// DocOpt's option-driven grammar, so it is dispatched here before
// DocOpt ever sees the argument list.
func main() {
	if len(os.Args) >= 2 && os.Args[1] == supervisor.WorkerSubcommand {
		runWorkerSubcommand(os.Args[2:])
		return
	}

	opts, err := docopt.ParseDoc(usage())
	dieOnError(err, "parsing arguments")

	var args arguments
	dieOnError(opts.Bind(&args), "binding arguments")

	if args.Verbose {
		logger.SetLevel(logger.Debug)
	}

	switch {
	case args.Tracefmt:
		runTracefmt(&args)
	case args.Run:
		runBenchmark(&args)
	}
}

func runWorkerSubcommand(rawArgs []string) {
	if len(rawArgs) != 2 {
		logger.Errorf("worker: expected <barrier> <parties>, got %v\n", rawArgs)
		os.Exit(1)
	}

	parties, err := strconv.Atoi(rawArgs[1])
	dieOnError(err, "parsing party count %q", rawArgs[1])

	if err := supervisor.RunWorkerSubprocess(rawArgs[0], parties); err != nil {
		logger.Errorf("worker: %v\n", err)
		os.Exit(1)
	}
}

func runBenchmark(args *arguments) {
	cfg, err := buildConfig(args)
	dieOnError(err, "validating arguments")

	dest := os.Stdout
	if args.JsonOutput != "" {
		dest, err = os.Create(args.JsonOutput)
		dieOnError(err, "creating json output file %q", args.JsonOutput)
		defer dest.Close()
	}

	if err := supervisor.Run(cfg, os.Args, dest); err != nil {
		logger.Errorf("%v\n", err)
		os.Exit(1)
	}
}

// buildConfig converts the raw, still-stringly-typed DocOpt bindings
// into a validated supervisor.Config, the way sibench's own
// validateArguments+buildConfig pair did for its Arguments struct.
func buildConfig(args *arguments) (supervisor.Config, error) {
	var cfg supervisor.Config

	prngImpl, err := prng.Parse(args.Prng)
	if err != nil {
		return cfg, err
	}
	cfg.PRNGImpl = prngImpl

	storageImpl, err := storage.Parse(args.Storage)
	if err != nil {
		return cfg, err
	}
	cfg.StorageImpl = storageImpl

	seed, err := strconv.ParseUint(args.Seed, 10, 32)
	if err != nil {
		return cfg, fmt.Errorf("bad seed %q: %w", args.Seed, err)
	}
	cfg.Seed = uint32(seed)

	if args.Workspace == "" {
		return cfg, fmt.Errorf("--workspace is required")
	}
	cfg.Workspace = args.Workspace

	if args.Tracedir == "" {
		return cfg, fmt.Errorf("--tracedir is required")
	}
	cfg.TraceDir = args.Tracedir

	cfg.WriteCount, err = strconv.ParseUint(args.WriteCount, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("bad --write-count %q: %w", args.WriteCount, err)
	}

	cfg.ReadCount, err = strconv.ParseUint(args.ReadCount, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("bad --read-count %q: %w", args.ReadCount, err)
	}

	parallel, err := strconv.ParseUint(args.Parallel, 10, 32)
	if err != nil || parallel == 0 || parallel > math.MaxUint32 {
		return cfg, fmt.Errorf("bad --parallel %q", args.Parallel)
	}
	cfg.Parallel = uint32(parallel)

	cfg.Bandwidth, err = expandUnits(args.Bandwidth)
	if err != nil {
		return cfg, fmt.Errorf("bad --bandwidth %q: %w", args.Bandwidth, err)
	}

	cfg.RampUp, err = parseDuration(args.RampUp)
	if err != nil {
		return cfg, fmt.Errorf("bad --ramp-up %q: %w", args.RampUp, err)
	}

	cfg.RampDown, err = parseDuration(args.RampDown)
	if err != nil {
		return cfg, fmt.Errorf("bad --ramp-down %q: %w", args.RampDown, err)
	}

	cfg.Processes = args.Processes
	cfg.Argv = args.Args
	cfg.JSONOutput = args.JsonOutput
	if args.Verbose {
		cfg.Verbose = 1
	}

	return cfg, nil
}

// parseDuration accepts either a bare time.ParseDuration-style string
// ("500ms", "2s") or a bare integer, treated as a count of seconds to
// match sibench's own integer ramp-up/ramp-down flags.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// expandUnits converts a string with optional K/M/G units into a byte
// count, ported from sibench's own expandUnits.
func expandUnits(val string) (uint64, error) {
	re := regexp.MustCompile(`([0-9]+)([kKmMgG]?)$`)

	groups := re.FindStringSubmatch(val)
	if groups == nil {
		return 0, fmt.Errorf("bad size specifier: %v", val)
	}

	ival, _ := strconv.Atoi(groups[1])
	uval := uint64(ival)

	switch strings.ToLower(groups[2]) {
	case "k":
		uval *= 1024
	case "m":
		uval *= 1024 * 1024
	case "g":
		uval *= 1024 * 1024 * 1024
	}

	return uval, nil
}

func runTracefmt(args *arguments) {
	f, err := os.Open(args.Trace)
	dieOnError(err, "opening trace file %q", args.Trace)
	defer f.Close()

	format := trace.Human
	if args.Csv {
		format = trace.CSV
	}

	if err := trace.FormatAll(f, os.Stdout, format); err != nil {
		logger.Errorf("tracefmt: %v\n", err)
		os.Exit(1)
	}
}
