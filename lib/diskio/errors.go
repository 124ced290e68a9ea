// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package diskio

import (
	"fmt"
)

// DeviceAccessError is a failure to open, stat, or otherwise probe a
// device, as opposed to a failure moving data to or from it.
type DeviceAccessError struct {
	Dev string
	Op  string
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("can't %v dev %v: %v", e.Op, e.Dev, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// DeviceBusyError means an exclusive open was refused because the
// kernel considers the device in use (mounted, attached, held by
// another opener).
type DeviceBusyError struct {
	Dev string
	Err error
}

func (e *DeviceBusyError) Error() string {
	return fmt.Sprintf("can't open dev %v: device is busy: %v", e.Dev, e.Err)
}

func (e *DeviceBusyError) Unwrap() error { return e.Err }

// DeviceReadError is a failed or short read.  Len is the requested
// byte count, N how many bytes actually arrived.
type DeviceReadError struct {
	Dev string
	Off int64
	Len int
	N   int
	Err error
}

func (e *DeviceReadError) Error() string {
	return fmt.Sprintf("dev %v: read %v bytes at %v: got %v: %v",
		e.Dev, e.Len, e.Off, e.N, e.Err)
}

func (e *DeviceReadError) Unwrap() error { return e.Err }

// DeviceWriteError is a failed or short write.
type DeviceWriteError struct {
	Dev string
	Off int64
	Len int
	N   int
	Err error
}

func (e *DeviceWriteError) Error() string {
	return fmt.Sprintf("dev %v: write %v bytes at %v: wrote %v: %v",
		e.Dev, e.Len, e.Off, e.N, e.Err)
}

func (e *DeviceWriteError) Unwrap() error { return e.Err }
