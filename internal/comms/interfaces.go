// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Package comms carries a worker.Order from the supervisor to a
// process-mode worker over a pipe, the way sibench's comms package
// carried job control messages over TCP between its manager and
// foreman processes.
package comms

// ReceivedMessage is a message we have received and partially
// decoded.
type ReceivedMessage interface {
	// ID reports our message ID.
	ID() uint8

	// Data unpacks the message data into the given struct of the
	// appropriate type.
	Data(data interface{})
}

// EncoderFactory makes an encoder, including its framer and any
// other objects it needs, around a given ByteConnection.
type EncoderFactory interface {
	Make(connection ByteConnection) Encoder
}

// Encoder encodes and decodes messages with struct data, sending and
// receiving via a Framer.
type Encoder interface {
	// Send encodes the given message and sends it.
	Send(messageID uint8, data interface{}) error

	// Receive blocks until the next message is available, then
	// decodes it.
	Receive() (ReceivedMessage, error)
}

// Framer frames and unframes messages to be sent and received over a
// stream.
type Framer interface {
	Send(message []byte) error
	Receive() (message []byte, err error)
}

// ByteConnection provides a byte-oriented read/write stream. net.Conn
// satisfies it, as does a PipeConnection joining the one-way stdin
// and stdout pipes of an exec.Cmd.
type ByteConnection interface {
	Read(buffer []byte) (byteCount int, err error)
	Write(buffer []byte) (byteCount int, err error)
}
