// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// The pre-length framer: a simple Framer that prepends a 4 byte,
// little-endian length field onto every message.

package comms

import "fmt"

// makePreLengthFramer makes a pre-length framer that sits on top of
// the given byte connection.
func makePreLengthFramer(conn ByteConnection) Framer {
	var framer preLengthFramer
	framer.conn = conn
	return &framer
}

func (me *preLengthFramer) Send(message []byte) error {
	messageLen := len(message)
	var header [4]byte
	header[0] = uint8(messageLen & 0xFF)
	header[1] = uint8((messageLen >> 8) & 0xFF)
	header[2] = uint8((messageLen >> 16) & 0xFF)
	header[3] = uint8((messageLen >> 24) & 0xFF)

	if _, err := me.conn.Write(header[:]); err != nil {
		return err
	}

	_, err := me.conn.Write(message)
	return err
}

func (me *preLengthFramer) Receive() (message []byte, err error) {
	header, err := me.receiveBytes(4)
	if err != nil {
		return nil, err
	}

	messageLen := uint(header[0]) | (uint(header[1]) << 8) | (uint(header[2]) << 16) | (uint(header[3]) << 24)

	message, err = me.receiveBytes(messageLen)
	if err != nil {
		return nil, err
	}

	return message, nil
}

// preLengthFramer is a Framer that prefixes a 4 byte length field
// onto each message.
type preLengthFramer struct {
	conn ByteConnection
}

// receiveBytes receives exactly byteCount bytes from our connection,
// since a single Read is not guaranteed to return everything asked
// for.
func (me *preLengthFramer) receiveBytes(byteCount uint) (data []byte, err error) {
	buffer := make([]byte, byteCount)
	index := uint(0)
	remaining := byteCount

	for remaining > 0 {
		count, err := me.conn.Read(buffer[index:])
		if count < 0 {
			return nil, fmt.Errorf("connection returned <0 bytes (%d)", count)
		}
		if err != nil {
			return nil, err
		}

		index += uint(count)
		remaining -= uint(count)
	}

	return buffer, nil
}
