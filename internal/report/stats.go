// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package report

import (
	"fmt"
	"sort"
	"time"
)

// Phase identifies which of the two benchmark phases a Stat belongs
// to.
type Phase int

const (
	Write Phase = iota
	Read
)

func (p Phase) String() string {
	switch p {
	case Write:
		return "write"
	case Read:
		return "read"
	default:
		return "unknown"
	}
}

// Stat is one completed operation, as reported by a single worker.
type Stat struct {
	Ordinal             uint32
	Phase               Phase
	TimeSincePhaseStart time.Duration
	Duration            time.Duration
	OK                  bool
}

type filterFunc func(Stat) bool

func phaseFilter(phase Phase) filterFunc {
	return func(s Stat) bool { return s.Phase == phase }
}

func ordinalFilter(ordinal uint32) filterFunc {
	return func(s Stat) bool { return s.Ordinal == ordinal }
}

func okFilter(ok bool) filterFunc {
	return func(s Stat) bool { return s.OK == ok }
}

// rampFilter excludes stats produced before rampUp or after
// rampUp+runTime have elapsed since the phase started, so that
// warm-up and cool-down periods don't skew bandwidth and latency
// analyses.
func rampFilter(rampUp, runTime time.Duration) filterFunc {
	return func(s Stat) bool {
		return s.TimeSincePhaseStart > rampUp && s.TimeSincePhaseStart <= rampUp+runTime
	}
}

func filter(stats []Stat, fns ...filterFunc) []Stat {
	var results []Stat
	for _, s := range stats {
		include := true
		for _, fn := range fns {
			if !fn(s) {
				include = false
				break
			}
		}
		if include {
			results = append(results, s)
		}
	}
	return results
}

func sortByDuration(stats []Stat) {
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Duration < stats[j].Duration
	})
}

// Analysis holds the statistics computed over some subset of Stats:
// the overall performance of a phase, or one worker's contribution to
// it.
type Analysis struct {
	Name    string
	Phase   string
	IsTotal bool

	ResTimeMin time.Duration
	ResTimeMax time.Duration
	ResTimeP95 time.Duration
	ResTimeAvg time.Duration

	BandwidthBytesPerSec uint64

	Successes uint64
	Failures  uint64
}

func (a Analysis) String() string {
	return fmt.Sprintf("%-28v  bandwidth: %8d B/s,  ok: %6d,  fail: %6d,  res-min: %6v,  res-max: %6v,  res-95: %6v,  res-avg: %6v",
		a.Name, a.BandwidthBytesPerSec, a.Successes, a.Failures,
		a.ResTimeMin, a.ResTimeMax, a.ResTimeP95, a.ResTimeAvg)
}

// NewAnalysis computes an Analysis over stats, attributing bandwidth
// over runTime at objectSize bytes per successful operation.
func NewAnalysis(stats []Stat, name string, phase Phase, isTotal bool, objectSize uint64, runTime time.Duration) Analysis {
	a := Analysis{Name: name, Phase: phase.String(), IsTotal: isTotal}

	good := filter(stats, okFilter(true))
	a.Successes = uint64(len(good))
	a.Failures = uint64(len(stats) - len(good))

	if len(good) == 0 || runTime <= 0 {
		return a
	}

	sortByDuration(good)

	a.ResTimeMin = good[0].Duration
	a.ResTimeMax = good[len(good)-1].Duration
	a.ResTimeP95 = good[int(float64(len(good))*0.95)].Duration
	a.BandwidthBytesPerSec = uint64(len(good)) * objectSize * uint64(time.Second) / uint64(runTime)

	var total time.Duration
	for _, s := range good {
		total += s.Duration
	}
	a.ResTimeAvg = total / time.Duration(len(good))

	return a
}
