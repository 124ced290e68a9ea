// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcachetools/mkbcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
)

// tmpDevice creates a 1MiB stand-in device filled with junk, so that
// tests can tell zeroed regions from never-written ones.
func tmpDevice(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.img")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xff}, 1<<20), 0o600))
	return path
}

func noSignature(context.Context, string) (string, error) {
	return "", nil
}

func readDevice(t *testing.T, path string) []byte {
	t.Helper()
	dat, err := os.ReadFile(path)
	require.NoError(t, err)
	return dat
}

func readSlot(t *testing.T, path string, slot int) bcache.Superblock {
	t.Helper()
	dat := readDevice(t, path)
	var sb bcache.Superblock
	off := int(bcache.SlotOffset(slot))
	_, err := binstruct.Unmarshal(dat[off:off+bcache.SBSize], &sb)
	require.NoError(t, err)
	return sb
}

// cacheRequest fits tmpDevice: 2048 sectors at 8 sectors per bucket
// is 256 buckets, comfortably past the 128-bucket floor.
func cacheRequest() mkbcache.Request {
	return mkbcache.Request{
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
		Probe:      noSignature,
	}
}

func TestFormatCache(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	req := cacheRequest()
	req.Discard = true
	req.CacheReplacement = bcache.ReplacementFIFO

	report, err := mkbcache.Format(ctx, dev, req)
	require.NoError(t, err)

	sb := readSlot(t, dev, 0)
	assert.Equal(t, report.SB, sb)
	assert.True(t, sb.HasMagic())
	assert.True(t, sb.CsumMatches())
	assert.False(t, sb.IsBdev())
	assert.Equal(t, bcache.VersionCdev, sb.Version)
	assert.Equal(t, req.DeviceUUID, sb.UUID)
	assert.Equal(t, req.SetUUID, sb.SetUUID)
	assert.EqualValues(t, bcache.SBSector, sb.Offset)
	assert.EqualValues(t, 256, sb.NBuckets)
	assert.EqualValues(t, 1, sb.NrInSet)
	assert.EqualValues(t, 23/8+1, sb.FirstBucket)
	assert.True(t, sb.Flags.CacheDiscard())
	assert.Equal(t, bcache.ReplacementFIFO, sb.Flags.CacheReplacement())

	// The reserved region before the superblock and every journal
	// bucket must have been zeroed.
	dat := readDevice(t, dev)
	assert.Equal(t, make([]byte, bcache.SBStart), dat[:bcache.SBStart], "reserved region")
	journal := dat[sb.BucketOffset(uint64(sb.FirstBucket)):sb.BucketOffset(sb.NBuckets)]
	assert.Equal(t, make([]byte, len(journal)), journal, "journal region")
}

func TestFormatCacheMarker(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	req := cacheRequest()
	req.Marker = bcache.MarkerAlcubierre

	_, err := mkbcache.Format(ctx, dev, req)
	require.NoError(t, err)

	dat := readDevice(t, dev)
	assert.Equal(t, "alcubierre", string(dat[:bcache.MarkerSize]))
	assert.Equal(t, make([]byte, bcache.SBStart-bcache.MarkerSize),
		dat[bcache.MarkerSize:bcache.SBStart],
		"rest of the reserved region")
	assert.True(t, readSlot(t, dev, 0).HasMagic())
}

func TestFormatBacking(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	var summary bytes.Buffer
	req := mkbcache.Request{
		Bdev:       true,
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
		WriteBack:  true,
		Dirty:      true,
		DataOffset: bcache.MinDataOffset(3),
		SBNum:      3,
		Probe:      noSignature,
		Out:        &summary,
	}

	report, err := mkbcache.Format(ctx, dev, req)
	require.NoError(t, err)
	require.Len(t, report.Secondaries, 2)

	seenUUIDs := make(map[bcache.UUID]int)
	for slot := 0; slot < req.SBNum; slot++ {
		sb := readSlot(t, dev, slot)
		assert.True(t, sb.HasMagic(), "slot %v", slot)
		assert.True(t, sb.CsumMatches(), "slot %v", slot)
		assert.True(t, sb.IsBdev(), "slot %v", slot)
		assert.EqualValues(t, bcache.SBSector, sb.Offset, "slot %v", slot)
		assert.Equal(t, req.BlockSize, sb.BlockSize, "slot %v", slot)
		assert.Equal(t, req.BucketSize, sb.BucketSize, "slot %v", slot)
		assert.Equal(t, req.DataOffset, sb.DataOffset(), "slot %v", slot)
		assert.Equal(t, bcache.CacheModeWriteback, sb.Flags.BdevCacheMode(), "slot %v", slot)
		assert.Equal(t, bcache.BdevStateDirty, sb.Flags.BdevState(), "slot %v", slot)
		seenUUIDs[sb.UUID]++
		seenUUIDs[sb.SetUUID]++
	}
	// Each slot is an independent candidate with its own identity,
	// not a mirror of slot 0.
	assert.Len(t, seenUUIDs, 2*req.SBNum)
	assert.Equal(t, req.DeviceUUID, readSlot(t, dev, 0).UUID)

	assert.Contains(t, summary.String(), "UUID:")
	assert.Contains(t, summary.String(), "secondary UUID:")
}

func TestFormatRefusesFormatted(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	_, err := mkbcache.Format(ctx, dev, cacheRequest())
	require.NoError(t, err)
	before := readDevice(t, dev)

	_, err = mkbcache.Format(ctx, dev, cacheRequest())
	var alreadyErr *mkbcache.AlreadyFormattedError
	require.ErrorAs(t, err, &alreadyErr)
	assert.Equal(t, dev, alreadyErr.Dev)
	assert.Equal(t, before, readDevice(t, dev), "refusal must not touch the device")

	req := cacheRequest()
	req.Wipe = true
	_, err = mkbcache.Format(ctx, dev, req)
	require.NoError(t, err)
	assert.Equal(t, req.DeviceUUID, readSlot(t, dev, 0).UUID)
}

func TestFormatRefusesForeignSignature(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	before := readDevice(t, dev)

	req := cacheRequest()
	req.Probe = func(context.Context, string) (string, error) {
		return "ext4", nil
	}
	_, err := mkbcache.Format(ctx, dev, req)
	var foreignErr *mkbcache.ForeignSignatureError
	require.ErrorAs(t, err, &foreignErr)
	assert.Equal(t, "ext4", foreignErr.Signature)
	assert.Equal(t, before, readDevice(t, dev), "refusal must not touch the device")
}

func TestFormatInsufficientBuckets(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	before := readDevice(t, dev)

	// 2048 sectors at the 1024-sector default bucket size is only
	// 2 buckets.
	req := cacheRequest()
	req.BucketSize = 1024
	_, err := mkbcache.Format(ctx, dev, req)
	var bucketsErr *mkbcache.InsufficientBucketsError
	require.ErrorAs(t, err, &bucketsErr)
	assert.EqualValues(t, 2, bucketsErr.Got)
	assert.EqualValues(t, bcache.MinCacheBuckets, bucketsErr.Need)
	assert.Equal(t, before, readDevice(t, dev), "refusal must not touch the device")
}

func TestFormatDataOffsetTooSmall(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := tmpDevice(t)
	before := readDevice(t, dev)

	req := mkbcache.Request{
		Bdev:       true,
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
		DataOffset: 20, // < 16 + 8*4
		SBNum:      4,
		Probe:      noSignature,
	}
	_, err := mkbcache.Format(ctx, dev, req)
	var offsetErr *mkbcache.DataOffsetTooSmallError
	require.ErrorAs(t, err, &offsetErr)
	assert.Equal(t, bcache.MinDataOffset(4), offsetErr.Min)
	assert.Equal(t, before, readDevice(t, dev), "refusal must not touch the device")
}

func TestFormatMissingDevice(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	_, err := mkbcache.Format(ctx, filepath.Join(t.TempDir(), "no-such"), cacheRequest())
	require.Error(t, err)
}
