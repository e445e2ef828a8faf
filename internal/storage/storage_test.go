// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	assert.Equal(t, "11223344-aabbccdd", ObjectName(0x11223344, 0xaabbccdd))
}

func TestParseRoundTrip(t *testing.T) {
	for _, impl := range []Impl{DirTree, Debug, S3, Rados} {
		parsed, err := Parse(impl.String())
		require.NoError(t, err)
		assert.Equal(t, impl, parsed)
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse("NOT-A-BACKEND")
	assert.Error(t, err)
}

func TestNewDispatchesToConcreteType(t *testing.T) {
	b, err := New(DirTree, noopRecorder{}, time.Now())
	require.NoError(t, err)
	_, ok := b.(*dirTree)
	assert.True(t, ok)

	b, err = New(Debug, noopRecorder{}, time.Now())
	require.NoError(t, err)
	_, ok = b.(*debugBackend)
	assert.True(t, ok)

	b, err = New(S3, noopRecorder{}, time.Now())
	require.NoError(t, err)
	_, ok = b.(*s3Backend)
	assert.True(t, ok)
}
