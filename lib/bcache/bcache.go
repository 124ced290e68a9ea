// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package bcache models the bcache on-disk format: the superblock
// record, its checksum and flag fields, and the sentinel markers that
// tag a formatted device for the udev/registration tooling.
//
// Sizes in this package follow the format's conventions: a "sector"
// is always 512 bytes regardless of device geometry, and block/bucket
// sizes are counted in sectors.
package bcache

// DevAddr is a byte offset into a device.
type DevAddr int64

const (
	// SBSector is the sector holding a device's primary
	// superblock; SBStart is the same position in bytes.
	SBSector = 8
	SBStart  = SBSector << 9

	SBLabelSize = 32

	// SBJournalBuckets caps both the journal-bucket list in the
	// superblock and how many buckets a fresh format zeroes.
	SBJournalBuckets = 256

	// MaxBdevSuperblocks bounds how many superblock slots a
	// backing device may carry (--sb-num).
	MaxBdevSuperblocks = 8

	// DataStartDefault is the implied data start (in sectors) of a
	// backing superblock that does not carry an explicit offset.
	DataStartDefault = 16

	// MinCacheBuckets is the smallest bucket count a cache device
	// may be formatted with.
	MinCacheBuckets = 128
)

// Magic identifies a bcache superblock.
var Magic = [16]byte{
	0xc6, 0x85, 0x73, 0xf6, 0x4e, 0x1a, 0x45, 0xca,
	0x82, 0x65, 0xf5, 0x7f, 0x48, 0xba, 0x6d, 0x81,
}

// SlotOffset returns the byte position of superblock slot i.  Slot 0
// is the primary superblock; backing devices may carry further slots
// at SBStart-sized strides.
func SlotOffset(i int) DevAddr {
	return DevAddr(SBStart + i*SBStart)
}

// MinDataOffset returns the smallest permissible data offset (in
// sectors) for a backing device carrying sbNum superblock slots.
func MinDataOffset(sbNum int) uint64 {
	return DataStartDefault + uint64(sbNum)*SBSector
}
