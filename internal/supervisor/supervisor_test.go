// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package supervisor

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/softiron/motifbench/internal/prng"
	"github.com/softiron/motifbench/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGoroutineWorkersProducesAValidReport(t *testing.T) {
	dir := t.TempDir()

	cfg := Config{
		PRNGImpl:    prng.Xorwow,
		StorageImpl: storage.Debug,
		Workspace:   dir + "/workspace",
		TraceDir:    dir + "/traces",
		WriteCount:  10,
		ReadCount:   10,
		Parallel:    4,
	}

	var out bytes.Buffer
	require.NoError(t, Run(cfg, []string{"run"}, &out))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	stats := decoded["Stats"].([]interface{})
	assert.Len(t, stats, int(cfg.Parallel)*int(cfg.WriteCount+cfg.ReadCount))

	analyses := decoded["Analyses"].([]interface{})
	assert.NotEmpty(t, analyses)
}

func TestDeriveSeedIsStableAndDistinctPerOrdinal(t *testing.T) {
	assert.Equal(t, uint32(0), deriveSeed(0, 3))
	assert.Equal(t, uint32(100), deriveSeed(100, 0))
	assert.NotEqual(t, deriveSeed(100, 0), deriveSeed(100, 1))
}

func TestRunRespectsRampWindowing(t *testing.T) {
	dir := t.TempDir()

	cfg := Config{
		PRNGImpl:    prng.Debug,
		StorageImpl: storage.Debug,
		Workspace:   dir + "/workspace",
		TraceDir:    dir + "/traces",
		WriteCount:  50,
		ReadCount:   0,
		Parallel:    1,
		RampUp:      time.Nanosecond,
	}

	var out bytes.Buffer
	require.NoError(t, Run(cfg, nil, &out))
}
