// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package diskio moves bytes to and from block devices (or plain
// files standing in for them), with typed byte-offsets and errors
// that identify the device and position involved.
package diskio

import (
	"io"
)

type File[A ~int64] interface {
	Name() string
	Size() A
	Close() error
	Sync() error
	ReadAt(p []byte, off A) (n int, err error)
	WriteAt(p []byte, off A) (n int, err error)
}

type assertAddr int64

var (
	_ io.WriterAt = File[int64](nil)
	_ io.ReaderAt = File[int64](nil)
)

// ReadAt fills dat from f starting at off, wrapping any failure in a
// DeviceReadError.  Unlike f.ReadAt, a short read is always an error,
// even at device end.
func ReadAt[A ~int64](f File[A], dat []byte, off A) error {
	n, err := f.ReadAt(dat, off)
	if err == nil && n < len(dat) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return &DeviceReadError{
			Dev: f.Name(),
			Off: int64(off),
			Len: len(dat),
			N:   n,
			Err: err,
		}
	}
	return nil
}

// WriteAt writes all of dat to f starting at off, wrapping any
// failure or short write in a DeviceWriteError.
func WriteAt[A ~int64](f File[A], dat []byte, off A) error {
	n, err := f.WriteAt(dat, off)
	if err == nil && n < len(dat) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &DeviceWriteError{
			Dev: f.Name(),
			Off: int64(off),
			Len: len(dat),
			N:   n,
			Err: err,
		}
	}
	return nil
}
