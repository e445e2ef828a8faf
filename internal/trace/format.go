// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

package trace

import (
	"bufio"
	"fmt"
	"io"
)

// Format selects how FormatAll renders entries.
type Format int

const (
	// CSV prints "sec.nsec,sec.nsec,OP,TAG", the reference tracefmt
	// tool's only output mode.
	CSV Format = iota
	// Human prints a padded, column-aligned line per entry.
	Human
)

// FormatAll reads fixed-size entries from r until EOF and writes one
// line per entry to w in the requested Format.
func FormatAll(r io.Reader, w io.Writer, format Format) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	buf := make([]byte, EntrySize)
	for {
		if _, err := io.ReadFull(br, buf); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		if err := writeEntry(bw, Decode(buf), format); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeEntry(w io.Writer, e Entry, format Format) error {
	if format == Human {
		_, err := fmt.Fprintf(w, "%6s  ts=%d.%09d  dur=%d.%09d  tag=%q\n",
			e.Op, e.TimestampSec, e.TimestampNsec, e.DurationSec, e.DurationNsec, e.TagString())
		return err
	}

	_, err := fmt.Fprintf(w, "%d.%09d,%d.%09d,%s,%s\n",
		e.TimestampSec, e.TimestampNsec,
		e.DurationSec, e.DurationNsec,
		e.Op, e.TagString())
	return err
}

// FormatCSV is FormatAll with format fixed to CSV, kept as the direct
// equivalent of the reference tracefmt tool's only mode.
func FormatCSV(r io.Reader, w io.Writer) error {
	return FormatAll(r, w, CSV)
}
