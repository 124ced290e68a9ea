// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package diskio

import (
	"golang.org/x/sys/unix"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/linux"
)

// SectorCount returns the size of f in 512-byte sectors.  Block
// devices are asked directly (BLKGETSIZE); anything else reports its
// fstat size.
func SectorCount[A ~int64](f *OSFile[A]) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return 0, &DeviceAccessError{Dev: f.Name(), Op: "stat", Err: err}
	}
	if linux.StatMode(st.Mode).IsBlockDev() {
		sectors, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE)
		if err != nil {
			return 0, &DeviceAccessError{Dev: f.Name(), Op: "ioctl(BLKGETSIZE)", Err: err}
		}
		return uint64(sectors), nil
	}
	return uint64(st.Size) / 512, nil
}

// LogicalBlockSize returns the logical block size of dev in 512-byte
// sectors.  Block devices are asked directly (BLKSSZGET; not the
// physical or optimal-IO sizes, so the result stays transparent to
// what the kernel will accept for single-sector IO); anything else
// reports its preferred-blocksize from stat.
func LogicalBlockSize(dev string) (uint16, error) {
	var st unix.Stat_t
	if err := unix.Stat(dev, &st); err != nil {
		return 0, &DeviceAccessError{Dev: dev, Op: "stat", Err: err}
	}
	if linux.StatMode(st.Mode).IsBlockDev() {
		fh, err := OpenReadOnly[int64](dev)
		if err != nil {
			return 0, err
		}
		defer func() {
			_ = fh.Close()
		}()
		bs, err := unix.IoctlGetUint32(int(fh.Fd()), unix.BLKSSZGET)
		if err != nil {
			return 0, &DeviceAccessError{Dev: dev, Op: "ioctl(BLKSSZGET)", Err: err}
		}
		return uint16(bs / 512), nil
	}
	return uint16(st.Blksize / 512), nil
}
