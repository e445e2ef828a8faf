// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// MessageConnection wraps a ByteConnection with message framing and
// encoding, as sibench's tcp_connection.go does for TCP. This harness
// only ever talks to its own worker subprocesses over a local pipe,
// so the TCP-specific listen/dial machinery sibench built around this
// type is dropped; NewMessageConnection takes any ByteConnection,
// TCP or otherwise.

package comms

import "io"

// MessageConnection is a message-based connection over an arbitrary
// ByteConnection.
type MessageConnection struct {
	conn    ByteConnection
	encoder Encoder
}

// NewMessageConnection wraps conn, encoding and decoding messages
// with the encoder the factory builds.
func NewMessageConnection(conn ByteConnection, factory EncoderFactory) *MessageConnection {
	var mc MessageConnection
	mc.conn = conn
	mc.encoder = factory.Make(conn)
	return &mc
}

// Send encodes and sends the given message.
func (me *MessageConnection) Send(messageID uint8, data interface{}) error {
	return me.encoder.Send(messageID, data)
}

// Receive blocks until a single message is available.
func (me *MessageConnection) Receive() (ReceivedMessage, error) {
	return me.encoder.Receive()
}

// Close closes the underlying connection, if it supports closing.
func (me *MessageConnection) Close() error {
	if closer, ok := me.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
