// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build darwin || linux

package storage

import "syscall"

// fileDescriptor wraps a raw platform file descriptor, bypassing
// Go's os.File so that every open can add O_SYNC (see openFile).
type fileDescriptor int

func (fd fileDescriptor) size() (int64, error) {
	var st syscall.Stat_t
	if err := syscall.Fstat(int(fd), &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}

func (fd fileDescriptor) read(p []byte) (int, error) {
	return syscall.Read(int(fd), p)
}

func (fd fileDescriptor) write(p []byte) (int, error) {
	return syscall.Write(int(fd), p)
}

func (fd fileDescriptor) close() error {
	return syscall.Close(int(fd))
}
