// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache

import (
	"fmt"
	"strings"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache/bcachesum"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
)

type Superblock struct {
	Csum    uint64            `bin:"off=0x0,  siz=0x8"` // checksum of everything from 0x8 through the live journal list
	Offset  uint64            `bin:"off=0x8,  siz=0x8"` // sector where this superblock lives; always SBSector
	Version Version           `bin:"off=0x10, siz=0x8"`
	Magic   [16]byte          `bin:"off=0x18, siz=0x10"`
	UUID    UUID              `bin:"off=0x28, siz=0x10"` // identity of this device
	SetUUID UUID              `bin:"off=0x38, siz=0x10"` // cache set this device belongs to
	Label   [SBLabelSize]byte `bin:"off=0x48, siz=0x20"` // NUL-padded
	Flags   Flags             `bin:"off=0x68, siz=0x8"`
	Seq     uint64            `bin:"off=0x70, siz=0x8"`
	Pad     [8]uint64         `bin:"off=0x78, siz=0x40"`

	// A backing device stores its data offset (in sectors) in the
	// 8 bytes where a cache device stores its bucket count.
	NBuckets   uint64 `bin:"off=0xb8, siz=0x8"`
	BlockSize  uint16 `bin:"off=0xc0, siz=0x2"` // sectors
	BucketSize uint16 `bin:"off=0xc2, siz=0x2"` // sectors
	NrInSet    uint16 `bin:"off=0xc4, siz=0x2"`
	NrThisDev  uint16 `bin:"off=0xc6, siz=0x2"`

	LastMount   uint32 `bin:"off=0xc8, siz=0x4"` // unix time
	FirstBucket uint16 `bin:"off=0xcc, siz=0x2"`

	// NJournalBuckets counts the live entries at the start of D.
	NJournalBuckets uint16                   `bin:"off=0xce, siz=0x2"`
	D               [SBJournalBuckets]uint64 `bin:"off=0xd0, siz=0x800"`
	binstruct.End   `bin:"off=0x8d0"`
}

// SBSize is the encoded size of a Superblock.
const SBSize = 0x8d0

// sbJournalOff is where D sits in the encoding; the checksum covers
// [0x8, sbJournalOff + 8*NJournalBuckets).
const sbJournalOff = 0xd0

func init() {
	if sz := binstruct.StaticSize(Superblock{}); sz != SBSize {
		panic(fmt.Errorf("Superblock encodes to %v bytes, not %v", sz, SBSize))
	}
}

func (sb Superblock) CalculateCsum() (uint64, error) {
	dat, err := binstruct.Marshal(sb)
	if err != nil {
		return 0, err
	}
	end := sbJournalOff + 8*int(sb.NJournalBuckets)
	if end > len(dat) {
		end = len(dat)
	}
	return bcachesum.Sum(dat[8:end]), nil
}

func (sb Superblock) ValidateCsum() error {
	calced, err := sb.CalculateCsum()
	if err != nil {
		return err
	}
	if calced != sb.Csum {
		return fmt.Errorf("superblock csum mismatch: stored=%016X calculated=%016X",
			sb.Csum, calced)
	}
	return nil
}

func (sb Superblock) CsumMatches() bool {
	return sb.ValidateCsum() == nil
}

func (sb Superblock) HasMagic() bool {
	return sb.Magic == Magic
}

// IsBdev reports whether the superblock describes a backing device
// (as opposed to a cache device).
func (sb Superblock) IsBdev() bool {
	return sb.Version == VersionBdev || sb.Version == VersionBdevWithOffset
}

// DataOffset returns the first data sector of a backing device; for
// versions without an explicit offset this is DataStartDefault.
func (sb Superblock) DataOffset() uint64 {
	if sb.Version == VersionBdevWithOffset {
		return sb.NBuckets
	}
	return DataStartDefault
}

// SetDataOffset stores an explicit data offset; the caller is
// responsible for setting VersionBdevWithOffset alongside it.
func (sb *Superblock) SetDataOffset(sectors uint64) {
	sb.NBuckets = sectors
}

// BucketOffset returns the byte position where the given bucket
// starts.
func (sb Superblock) BucketOffset(bucket uint64) DevAddr {
	return DevAddr(bucket) * DevAddr(sb.BucketSize) * 512
}

// LabelString returns the label with NUL padding stripped.
func (sb Superblock) LabelString() string {
	return strings.TrimRight(string(sb.Label[:]), "\x00")
}
