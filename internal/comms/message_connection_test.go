// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package comms

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Seed  uint32
	Count int
	Tag   string
}

func TestGobEncoderRoundTripThroughAPipe(t *testing.T) {
	serverR, clientW, err := os.Pipe()
	require.NoError(t, err)
	clientR, serverW, err := os.Pipe()
	require.NoError(t, err)

	client := NewMessageConnection(NewPipeConnection(clientR, clientW), MakeGobEncoderFactory())
	server := NewMessageConnection(NewPipeConnection(serverR, serverW), MakeGobEncoderFactory())

	want := payload{Seed: 0xDEADBEEF, Count: 7, Tag: "hello"}

	done := make(chan error, 1)
	go func() {
		done <- client.Send(42, want)
	}()

	msg, err := server.Receive()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.EqualValues(t, 42, msg.ID())

	var got payload
	msg.Data(&got)
	assert.Equal(t, want, got)

	client.Close()
	server.Close()
}
