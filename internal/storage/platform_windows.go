// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

//go:build windows

package storage

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type fileDescriptor windows.Handle

// openFile is a trimmed-down copy of the standard library's Windows
// os.Open, adding FILE_FLAG_WRITE_THROUGH so a successful close
// implies durability, matching openFile on the unix builds.
func openFile(path string, mode int, perm uint32) (fileDescriptor, error) {
	if len(path) == 0 {
		return fileDescriptor(windows.InvalidHandle), windows.ERROR_FILE_NOT_FOUND
	}

	pathp, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fileDescriptor(windows.InvalidHandle), err
	}

	var access uint32
	switch mode & (windows.O_RDONLY | windows.O_WRONLY | windows.O_RDWR) {
	case windows.O_RDONLY:
		access = windows.GENERIC_READ
	case windows.O_WRONLY:
		access = windows.GENERIC_WRITE
	case windows.O_RDWR:
		access = windows.GENERIC_READ | windows.GENERIC_WRITE
	}
	if mode&windows.O_CREAT != 0 {
		access |= windows.GENERIC_WRITE
	}

	sharemode := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE)

	var sa windows.SecurityAttributes
	sa.Length = uint32(unsafe.Sizeof(sa))
	sa.InheritHandle = 1

	var createmode uint32
	switch {
	case mode&(windows.O_CREAT|windows.O_EXCL) == (windows.O_CREAT | windows.O_EXCL):
		createmode = windows.CREATE_NEW
	case mode&windows.O_CREAT == windows.O_CREAT:
		createmode = windows.OPEN_ALWAYS
	default:
		createmode = windows.OPEN_EXISTING
	}

	attrs := uint32(windows.FILE_ATTRIBUTE_NORMAL) | windows.FILE_FLAG_WRITE_THROUGH

	h, err := windows.CreateFile(pathp, access, sharemode, &sa, createmode, attrs, 0)
	return fileDescriptor(h), err
}

func (fd fileDescriptor) size() (int64, error) {
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(windows.Handle(fd), &info); err != nil {
		return 0, err
	}
	return int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow), nil
}

func (fd fileDescriptor) read(p []byte) (int, error) {
	return windows.Read(windows.Handle(fd), p)
}

func (fd fileDescriptor) write(p []byte) (int, error) {
	return windows.Write(windows.Handle(fd), p)
}

func (fd fileDescriptor) close() error {
	return windows.Close(windows.Handle(fd))
}

const (
	oCreat  = windows.O_CREAT
	oExcl   = windows.O_EXCL
	oWronly = windows.O_WRONLY
	oRdonly = windows.O_RDONLY
)
