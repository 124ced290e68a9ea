// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache

import (
	"context"
	"io"

	"github.com/datawire/dlib/dlog"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
)

// ResetRequest carries the parameters for rewriting the identity of
// one backing-device superblock slot.
type ResetRequest struct {
	Slot int

	// Wipe must be set; a reset always overwrites a live record.
	Wipe bool

	DeviceUUID bcache.UUID
	SetUUID    bcache.UUID

	// Out receives the user-facing summary block; nil discards it.
	Out io.Writer
}

// ResetBackingSB rewrites the superblock at req.Slot with a fresh
// identity, preserving the recorded geometry (block size, bucket
// size, and data offset).  Other slots and the data area are not
// touched.
func ResetBackingSB(ctx context.Context, dev string, req ResetRequest) error {
	if req.Out == nil {
		req.Out = io.Discard
	}
	ctx = dlog.WithField(ctx, "bcache.dev", dev)
	ctx = dlog.WithField(ctx, "bcache.slot", req.Slot)

	f, err := diskio.OpenExclusive[bcache.DevAddr](dev)
	if err != nil {
		return err
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	slotOff := bcache.SlotOffset(req.Slot)
	dat := make([]byte, bcache.SBSize)
	if err := diskio.ReadAt(f, dat, slotOff); err != nil {
		return err
	}
	var sb bcache.Superblock
	if _, err := binstruct.Unmarshal(dat, &sb); err != nil {
		return err
	}

	if !sb.HasMagic() {
		return &NotFormattedError{Dev: dev, Slot: req.Slot}
	}
	if !req.Wipe {
		return &AlreadyFormattedError{Dev: dev}
	}
	if !sb.IsBdev() {
		return &NotBackingDeviceError{Dev: dev}
	}

	if sb.UUID == req.DeviceUUID {
		return &IdentityUnchangedError{Dev: dev, Identity: "bdev-uuid"}
	}
	if sb.SetUUID == req.SetUUID {
		return &IdentityUnchangedError{Dev: dev, Identity: "cset-uuid"}
	}

	// NBuckets is read raw: for a version-4 record it is the
	// stored data offset, for a version-1 record it is zero.
	rawOffset := sb.NBuckets
	sb = bcache.Superblock{
		Offset:     bcache.SBSector,
		Version:    bcache.VersionBdev,
		Magic:      bcache.Magic,
		UUID:       req.DeviceUUID,
		SetUUID:    req.SetUUID,
		BlockSize:  sb.BlockSize,
		BucketSize: sb.BucketSize,
	}
	if rawOffset != 0 && rawOffset != bcache.DataStartDefault {
		sb.Version = bcache.VersionBdevWithOffset
		sb.SetDataOffset(rawOffset)
	}

	dlog.Debugf(ctx, "resetting %v superblock identity", sb.Version)

	if err := summarizeBdev(req.Out, &sb, "UUID:\t\t\t", sb.DataOffset()); err != nil {
		return err
	}

	csum, err := sb.CalculateCsum()
	if err != nil {
		return err
	}
	sb.Csum = csum

	dat, err = binstruct.Marshal(sb)
	if err != nil {
		return err
	}
	if err := diskio.WriteAt(f, dat, slotOff); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return &diskio.DeviceAccessError{Dev: dev, Op: "sync", Err: err}
	}
	closeErr := f.Close()
	f = nil
	if closeErr != nil {
		return &diskio.DeviceAccessError{Dev: dev, Op: "close", Err: closeErr}
	}
	return nil
}
