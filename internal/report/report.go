// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package report streams benchmark results to JSON as they arrive,
// and computes latency/bandwidth analyses once a run is complete.
// The streaming shape (write each Stat as it comes in rather than
// buffering a run's worth of JSON in memory) is sibench's report.go
// pattern, generalized from its per-server-connection model to this
// harness's per-worker-ordinal one.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Report accumulates Stats as workers report them, streaming each one
// to the underlying writer immediately, and can later produce
// Analyses over everything it has seen.
type Report struct {
	mu        sync.Mutex
	w         io.Writer
	firstStat bool
	firstErr  bool
	werr      error
	stats     []Stat
	errors    []string
	analyses  []Analysis
}

// New opens a Report writing JSON to w. The caller owns w and must
// close it after calling Close.
func New(w io.Writer, args []string) (*Report, error) {
	r := &Report{w: w, firstStat: true, firstErr: true}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshalling arguments: %w", err)
	}

	r.writeString(fmt.Sprintf("{\n  \"Arguments\": %s,\n  \"Stats\": [\n", argsJSON))
	return r, r.werr
}

func (r *Report) writeString(s string) {
	if r.werr != nil {
		return
	}
	_, r.werr = io.WriteString(r.w, s)
}

// AddStat streams one Stat to the report and retains it in memory for
// later analysis. Hand-written JSON, rather than json.Marshal, avoids
// paying marshalling overhead per operation on the hot path.
func (r *Report) AddStat(s Stat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = append(r.stats, s)

	prefix := ",\n    "
	if r.firstStat {
		prefix = "    "
		r.firstStat = false
	}

	r.writeString(fmt.Sprintf(
		`%s{"Ordinal": %d, "Phase": %q, "TimeSincePhaseStart": %d, "Duration": %d, "OK": %t}`,
		prefix, s.Ordinal, s.Phase, s.TimeSincePhaseStart.Nanoseconds(), s.Duration.Nanoseconds(), s.OK))

	return r.werr
}

// AddError records a non-fatal error encountered during the run, to
// be surfaced alongside the stats in the final report.
func (r *Report) AddError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err.Error())
}

// Analyse computes Analyses over all the Stats seen so far: one per
// worker ordinal per phase, and one total per phase. rampUp and
// rampDown exclude warm-up and cool-down time from each phase's
// window, measured against that phase's own observed duration (the
// latest TimeSincePhaseStart seen for it) rather than an externally
// supplied run time, since this harness's phases are sized by object
// count, not by a fixed clock duration. If a phase ran for less time
// than rampUp+rampDown, windowing is skipped for it rather than
// discarding every sample.
func (r *Report) Analyse(objectSize uint64, rampUp, rampDown time.Duration, ordinals []uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, phase := range []Phase{Write, Read} {
		phaseStats := filter(r.stats, phaseFilter(phase))

		var total time.Duration
		for _, s := range phaseStats {
			if s.TimeSincePhaseStart > total {
				total = s.TimeSincePhaseStart
			}
		}

		windowStart := rampUp
		windowLen := total - rampUp - rampDown
		if windowLen < 0 {
			windowStart = 0
			windowLen = total
		}

		windowed := filter(phaseStats, rampFilter(windowStart, windowLen))

		for _, ord := range ordinals {
			workerStats := filter(windowed, ordinalFilter(ord))
			r.analyses = append(r.analyses,
				NewAnalysis(workerStats, fmt.Sprintf("worker-%d", ord), phase, false, objectSize, windowLen))
		}

		r.analyses = append(r.analyses, NewAnalysis(windowed, "total", phase, true, objectSize, windowLen))
	}
}

// DisplayAnalyses prints the analyses computed by Analyse to w, one
// line per analysis.
func (r *Report) DisplayAnalyses(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.analyses {
		fmt.Fprintf(w, "%s  [%s]\n", a, a.Phase)
	}
}

// Close writes the errors and analyses seen so far and terminates the
// JSON document. The Report must not be used afterwards.
func (r *Report) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writeString("\n  ],\n  \"Errors\": [\n")
	for i, e := range r.errors {
		prefix := ",\n    "
		if i == 0 {
			prefix = "    "
		}
		errJSON, err := json.Marshal(e)
		if err != nil {
			errJSON = []byte(`"<unmarshallable error>"`)
		}
		r.writeString(fmt.Sprintf("%s%s", prefix, errJSON))
	}

	r.writeString("\n  ],\n  \"Analyses\": [\n")
	for i, a := range r.analyses {
		prefix := ",\n    "
		if i == 0 {
			prefix = "    "
		}
		r.writeString(fmt.Sprintf(
			`%s{"Name": %q, "Phase": %q, "IsTotal": %t, "ResTimeMinNs": %d, "ResTimeMaxNs": %d, "ResTimeP95Ns": %d, "ResTimeAvgNs": %d, "BandwidthBytesPerSec": %d, "Successes": %d, "Failures": %d}`,
			prefix, a.Name, a.Phase, a.IsTotal,
			a.ResTimeMin.Nanoseconds(), a.ResTimeMax.Nanoseconds(), a.ResTimeP95.Nanoseconds(), a.ResTimeAvg.Nanoseconds(),
			a.BandwidthBytesPerSec, a.Successes, a.Failures))
	}
	r.writeString("\n  ]\n}\n")

	return r.werr
}
