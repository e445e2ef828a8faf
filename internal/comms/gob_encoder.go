// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// The Gob encoder: an Encoder for use in process-mode worker.Order
// delivery, built on encoding/gob from the standard library, the way
// sibench's own comms package does it.

package comms

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// MakeGobEncoderFactory makes a Gob encoder factory.
func MakeGobEncoderFactory() EncoderFactory {
	var factory gobEncoderFactory
	return &factory
}

func (me *gobEncoderFactory) Make(connection ByteConnection) Encoder {
	framer := makePreLengthFramer(connection)
	return makeGobEncoder(framer)
}

func (me *gobEncoder) Send(messageID uint8, data interface{}) error {
	var buf bytes.Buffer
	buf.WriteByte(byte(messageID))

	if data != nil {
		enc := gob.NewEncoder(&buf)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("could not encode message: %w", err)
		}
	}

	return me.framer.Send(buf.Bytes())
}

func (me *gobEncoder) Receive() (ReceivedMessage, error) {
	messageBytes, err := me.framer.Receive()
	if err != nil {
		return nil, err
	}
	if len(messageBytes) == 0 {
		return nil, fmt.Errorf("received empty message")
	}

	id := uint8(messageBytes[0])
	return makeGobReceivedMessage(id, messageBytes[1:]), nil
}

func (me *gobReceivedMessage) ID() uint8 {
	return me.id
}

func (me *gobReceivedMessage) Data(data interface{}) {
	buf := bytes.NewBuffer(me.messageBytes)
	dec := gob.NewDecoder(buf)
	dec.Decode(data)
}

type gobEncoderFactory struct{}

type gobEncoder struct {
	framer Framer
}

type gobReceivedMessage struct {
	id           uint8
	messageBytes []byte
}

func makeGobEncoder(framer Framer) *gobEncoder {
	var encoder gobEncoder
	encoder.framer = framer
	return &encoder
}

func makeGobReceivedMessage(id uint8, messageBytes []byte) *gobReceivedMessage {
	var m gobReceivedMessage
	m.id = id
	m.messageBytes = messageBytes
	return &m
}
