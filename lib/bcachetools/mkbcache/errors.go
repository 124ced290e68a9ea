// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache

import (
	"fmt"
)

// AlreadyFormattedError means the device already carries a bcache
// superblock and the request did not say to wipe it.
type AlreadyFormattedError struct {
	Dev string
}

func (e *AlreadyFormattedError) Error() string {
	return fmt.Sprintf("Already a bcache device on %s, overwrite with --wipe-bcache", e.Dev)
}

// ForeignSignatureError means the signature probe found somebody
// else's superblock or partition table on the device.
type ForeignSignatureError struct {
	Dev       string
	Signature string
}

func (e *ForeignSignatureError) Error() string {
	return fmt.Sprintf("Device %s already has a non-bcache superblock (%s), remove it using wipefs and wipefs -a",
		e.Dev, e.Signature)
}

// InsufficientBucketsError means a cache device is too small for its
// bucket size.
type InsufficientBucketsError struct {
	Dev  string
	Got  uint64
	Need uint64
}

func (e *InsufficientBucketsError) Error() string {
	return fmt.Sprintf("Not enough buckets: %v, need %v", e.Got, e.Need)
}

// DataOffsetTooSmallError means an explicit data offset would overlap
// the superblock slots.
type DataOffsetTooSmallError struct {
	Got uint64
	Min uint64
}

func (e *DataOffsetTooSmallError) Error() string {
	return fmt.Sprintf("Bad data offset; minimum %v sectors", e.Min)
}

// NotFormattedError means a reset found no bcache superblock at the
// requested slot.
type NotFormattedError struct {
	Dev  string
	Slot int
}

func (e *NotFormattedError) Error() string {
	return fmt.Sprintf("Not a bcache device on %s index %v", e.Dev, e.Slot)
}

// NotBackingDeviceError means a reset found a cache-device superblock
// where a backing-device one was required.
type NotBackingDeviceError struct {
	Dev string
}

func (e *NotBackingDeviceError) Error() string {
	return fmt.Sprintf("Device %s is not a backing device", e.Dev)
}

// IdentityUnchangedError means a reset was asked to write the same
// identity that is already on disk; Identity is "bdev-uuid" or
// "cset-uuid".
type IdentityUnchangedError struct {
	Dev      string
	Identity string
}

func (e *IdentityUnchangedError) Error() string {
	return fmt.Sprintf("Please specify new %s", e.Identity)
}
