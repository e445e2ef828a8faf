// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package comms

import "io"

// PipeConnection adapts a pair of unidirectional pipes (a
// subprocess's stdin and stdout, from either end) into a
// ByteConnection, so process-mode workers can be driven with the
// same MessageConnection the supervisor uses.
type PipeConnection struct {
	r io.ReadCloser
	w io.WriteCloser
}

// NewPipeConnection builds a ByteConnection out of a read side and a
// write side. From the supervisor's end, r is the child's stdout and
// w is the child's stdin; from the worker's end, r is its own stdin
// and w is its own stdout.
func NewPipeConnection(r io.ReadCloser, w io.WriteCloser) *PipeConnection {
	return &PipeConnection{r: r, w: w}
}

func (p *PipeConnection) Read(buffer []byte) (int, error) {
	return p.r.Read(buffer)
}

func (p *PipeConnection) Write(buffer []byte) (int, error) {
	return p.w.Write(buffer)
}

// Close closes both sides. Errors closing the read side take
// priority over errors closing the write side, but both are
// attempted regardless.
func (p *PipeConnection) Close() error {
	rerr := p.r.Close()
	werr := p.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
