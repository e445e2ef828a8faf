// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build darwin

package storage

import "syscall"

func openFile(path string, mode int, perm uint32) (fileDescriptor, error) {
	fd, err := syscall.Open(path, mode|syscall.O_SYNC, perm)
	return fileDescriptor(fd), err
}
