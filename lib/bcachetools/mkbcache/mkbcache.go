// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package mkbcache formats cache and backing devices: building
// superblocks, zeroing cache journals, tagging devices with
// registration markers, and resetting the identity of existing
// backing superblocks.
package mkbcache

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/datawire/dlib/dlog"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
)

// defaultBucketSize is in sectors (512KiB).
const defaultBucketSize = 1024

// Options is one whole make-bcache invocation.
type Options struct {
	CacheDevs   []string
	BackingDevs []string

	BlockSize  uint16 // sectors; 0 probes every device and takes the max
	BucketSize uint16 // sectors; 0 means the 1024-sector default

	WriteBack        bool
	Discard          bool
	Wipe             bool
	CacheReplacement bcache.CacheReplacement

	// DataOffset is the first data sector of a backing device;
	// nil means the smallest legal value, 16 + 8*SBNum.
	DataOffset *uint64

	SetUUID    bcache.UUID // zero means generate one for the invocation
	DeviceUUID bcache.UUID // zero means generate one for the invocation

	// Dirty marks backing devices as holding dirty cached data,
	// so that attaching a freshly faked backing device resumes
	// writeback.
	Dirty bool

	// SBNum is how many superblock slots each backing device
	// carries, 1 through 8.
	SBNum int

	// ResetSlot, when 0..7, rewrites the identity of that slot on
	// a single backing device instead of formatting anything; -1
	// formats.
	ResetSlot int

	Marker bcache.Marker

	// Probe looks for foreign signatures before formatting; nil
	// means BlkidProbe.
	Probe SignatureProbe

	// Out receives the user-facing summary blocks; nil discards
	// them.
	Out io.Writer
}

// Run resolves the Options defaults and dispatches: a single reset,
// or a format of every cache device (always one slot) and then every
// backing device (SBNum slots).  All geometry probing happens before
// the first write to any device.
func Run(ctx context.Context, opts Options) error {
	if len(opts.CacheDevs) == 0 && len(opts.BackingDevs) == 0 {
		return errors.New("please supply a device")
	}
	if opts.SBNum < 1 || opts.SBNum > bcache.MaxBdevSuperblocks {
		return fmt.Errorf("bad sb-num %v, must be between 1 and %v",
			opts.SBNum, bcache.MaxBdevSuperblocks)
	}

	blockSize := opts.BlockSize
	if blockSize == 0 {
		for _, dev := range opts.CacheDevs {
			bs, err := diskio.LogicalBlockSize(dev)
			if err != nil {
				return err
			}
			blockSize = max(blockSize, bs)
		}
		for _, dev := range opts.BackingDevs {
			bs, err := diskio.LogicalBlockSize(dev)
			if err != nil {
				return err
			}
			blockSize = max(blockSize, bs)
		}
		dlog.Debugf(ctx, "probed block size: %v sectors", blockSize)
	}

	bucketSize := opts.BucketSize
	if bucketSize == 0 {
		bucketSize = defaultBucketSize
	}
	if bucketSize < blockSize {
		return errors.New("bucket size cannot be smaller than block size")
	}

	minOffset := bcache.MinDataOffset(opts.SBNum)
	dataOffset := minOffset
	if opts.DataOffset != nil {
		dataOffset = *opts.DataOffset
		if dataOffset < minOffset {
			return &DataOffsetTooSmallError{Got: dataOffset, Min: minOffset}
		}
	}

	setUUID := opts.SetUUID
	if setUUID.IsZero() {
		setUUID = bcache.GenerateUUID()
	}
	devUUID := opts.DeviceUUID
	if devUUID.IsZero() {
		devUUID = bcache.GenerateUUID()
	}

	if opts.ResetSlot >= 0 {
		if opts.ResetSlot >= bcache.MaxBdevSuperblocks {
			return fmt.Errorf("bad superblock index %v, maximum index: %v",
				opts.ResetSlot, bcache.MaxBdevSuperblocks-1)
		}
		if len(opts.BackingDevs) != 1 {
			return errors.New("only one backing device can be reset at a time")
		}
		if len(opts.CacheDevs) > 0 {
			dlog.Warnf(ctx, "ignoring %v cache devices for reset", len(opts.CacheDevs))
		}
		return ResetBackingSB(ctx, opts.BackingDevs[0], ResetRequest{
			Slot:       opts.ResetSlot,
			Wipe:       opts.Wipe,
			DeviceUUID: devUUID,
			SetUUID:    setUUID,
			Out:        opts.Out,
		})
	}

	req := Request{
		BlockSize:        blockSize,
		BucketSize:       bucketSize,
		DeviceUUID:       devUUID,
		SetUUID:          setUUID,
		Discard:          opts.Discard,
		CacheReplacement: opts.CacheReplacement,
		WriteBack:        opts.WriteBack,
		Dirty:            opts.Dirty,
		DataOffset:       dataOffset,
		SBNum:            1,
		Wipe:             opts.Wipe,
		Marker:           opts.Marker,
		Probe:            opts.Probe,
		Out:              opts.Out,
	}
	for _, dev := range opts.CacheDevs {
		if _, err := Format(ctx, dev, req); err != nil {
			return err
		}
	}
	req.Bdev = true
	req.SBNum = opts.SBNum
	for _, dev := range opts.BackingDevs {
		if _, err := Format(ctx, dev, req); err != nil {
			return err
		}
	}
	return nil
}
