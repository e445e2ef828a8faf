// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build linux

package storage

import "syscall"

// openFile opens path with mode, adding O_SYNC so writes are durable
// before the close() that bounds a write's measured latency returns.
// O_DIRECT is deliberately left out of the default path: the sample
// payload is not necessarily aligned to the block size O_DIRECT
// demands, and DIRTREE's job is to measure the backend's own latency,
// not to fight alignment requirements of a filesystem it doesn't
// control.
func openFile(path string, mode int, perm uint32) (fileDescriptor, error) {
	fd, err := syscall.Open(path, mode|syscall.O_SYNC, perm)
	return fileDescriptor(fd), err
}
