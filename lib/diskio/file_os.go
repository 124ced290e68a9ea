// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package diskio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

type OSFile[A ~int64] struct {
	*os.File
}

var _ File[assertAddr] = (*OSFile[assertAddr])(nil)

// OpenExclusive opens dev for read-write with O_EXCL, so the kernel
// refuses block devices it considers in use (mounted, attached to
// bcache, held by another exclusive opener).  On regular files the
// flag is a no-op.
func OpenExclusive[A ~int64](dev string) (*OSFile[A], error) {
	fh, err := os.OpenFile(dev, os.O_RDWR|unix.O_EXCL, 0)
	if err != nil {
		if errors.Is(err, unix.EBUSY) {
			return nil, &DeviceBusyError{Dev: dev, Err: err}
		}
		return nil, &DeviceAccessError{Dev: dev, Op: "open", Err: err}
	}
	return &OSFile[A]{File: fh}, nil
}

// OpenReadOnly opens dev for inspection, without taking exclusivity.
func OpenReadOnly[A ~int64](dev string) (*OSFile[A], error) {
	fh, err := os.Open(dev)
	if err != nil {
		return nil, &DeviceAccessError{Dev: dev, Op: "open", Err: err}
	}
	return &OSFile[A]{File: fh}, nil
}

// Size is the fstat size; for block devices (where fstat reports 0)
// use SectorCount instead.
func (f *OSFile[A]) Size() A {
	fi, err := f.Stat()
	if err != nil {
		return 0
	}
	return A(fi.Size())
}

func (f *OSFile[A]) ReadAt(dat []byte, paddr A) (int, error) {
	return f.File.ReadAt(dat, int64(paddr))
}

func (f *OSFile[A]) WriteAt(dat []byte, paddr A) (int, error) {
	return f.File.WriteAt(dat, int64(paddr))
}
