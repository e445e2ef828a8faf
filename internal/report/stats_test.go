// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhaseFilter(t *testing.T) {
	stats := []Stat{
		{Phase: Write, Duration: time.Millisecond, OK: true},
		{Phase: Read, Duration: time.Millisecond, OK: true},
	}
	got := filter(stats, phaseFilter(Read))
	assert.Len(t, got, 1)
	assert.Equal(t, Read, got[0].Phase)
}

func TestOkFilterSeparatesFailures(t *testing.T) {
	stats := []Stat{
		{OK: true, Duration: time.Millisecond},
		{OK: false, Duration: time.Millisecond},
		{OK: true, Duration: 2 * time.Millisecond},
	}
	assert.Len(t, filter(stats, okFilter(true)), 2)
	assert.Len(t, filter(stats, okFilter(false)), 1)
}

func TestRampFilterExcludesWarmupAndCooldown(t *testing.T) {
	stats := []Stat{
		{TimeSincePhaseStart: 0},
		{TimeSincePhaseStart: 5 * time.Second},
		{TimeSincePhaseStart: 50 * time.Second},
	}
	got := filter(stats, rampFilter(2*time.Second, 10*time.Second))
	assert.Len(t, got, 1)
	assert.Equal(t, 5*time.Second, got[0].TimeSincePhaseStart)
}

func TestNewAnalysisComputesPercentilesAndBandwidth(t *testing.T) {
	var stats []Stat
	for i := 1; i <= 100; i++ {
		stats = append(stats, Stat{OK: true, Duration: time.Duration(i) * time.Millisecond})
	}

	a := NewAnalysis(stats, "total", Write, true, 1024, time.Second)

	assert.Equal(t, uint64(100), a.Successes)
	assert.Equal(t, uint64(0), a.Failures)
	assert.Equal(t, time.Millisecond, a.ResTimeMin)
	assert.Equal(t, 100*time.Millisecond, a.ResTimeMax)
	assert.Equal(t, 96*time.Millisecond, a.ResTimeP95)
	assert.Equal(t, uint64(100*1024), a.BandwidthBytesPerSec)
}

func TestNewAnalysisWithNoSuccessesIsZeroed(t *testing.T) {
	stats := []Stat{{OK: false}, {OK: false}}
	a := NewAnalysis(stats, "total", Read, true, 1024, time.Second)
	assert.Equal(t, uint64(0), a.Successes)
	assert.Equal(t, uint64(2), a.Failures)
	assert.Equal(t, time.Duration(0), a.ResTimeAvg)
	assert.Equal(t, uint64(0), a.BandwidthBytesPerSec)
}
