// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache/bcachesum"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
)

func testSuperblock() bcache.Superblock {
	sb := bcache.Superblock{
		Offset:          bcache.SBSector,
		Version:         bcache.VersionCdev,
		Magic:           bcache.Magic,
		UUID:            bcache.MustParseUUID("00c72eeb-0d91-4b09-a2d0-2f3ba84a5c6b"),
		SetUUID:         bcache.MustParseUUID("9a1e99b9-37dc-4852-9f1e-80e6c8a1e4e7"),
		Seq:             1,
		NBuckets:        2048,
		BlockSize:       1,
		BucketSize:      1024,
		NrInSet:         1,
		FirstBucket:     1,
		NJournalBuckets: 2,
	}
	copy(sb.Label[:], "hello")
	sb.D[0] = 1
	sb.D[1] = 2
	return sb
}

func TestSuperblockSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, bcache.SBSize, binstruct.StaticSize(bcache.Superblock{}))

	dat, err := binstruct.Marshal(testSuperblock())
	require.NoError(t, err)
	assert.Len(t, dat, bcache.SBSize)
}

func TestSuperblockLayout(t *testing.T) {
	t.Parallel()
	sb := testSuperblock()
	sb.Version = bcache.VersionBdevWithOffset
	sb.BlockSize = 0x0102
	sb.D[0] = 0x1122334455667788

	dat, err := binstruct.Marshal(sb)
	require.NoError(t, err)

	assert.EqualValues(t, 8, dat[0x08], "offset")
	assert.EqualValues(t, 4, dat[0x10], "version")
	assert.Equal(t, bcache.Magic[:], dat[0x18:0x28], "magic")
	assert.EqualValues(t, 'h', dat[0x48], "label")
	assert.EqualValues(t, 1, dat[0x70], "seq")
	// little-endian
	assert.EqualValues(t, 0x02, dat[0xc0], "block_size lo")
	assert.EqualValues(t, 0x01, dat[0xc1], "block_size hi")
	assert.EqualValues(t, 2, dat[0xce], "keys")
	assert.EqualValues(t, 0x88, dat[0xd0], "d[0]")
}

func TestSuperblockRoundTrip(t *testing.T) {
	t.Parallel()
	testcases := map[string]bcache.Superblock{
		"cache": testSuperblock(),
		"backing": func() bcache.Superblock {
			sb := testSuperblock()
			sb.Version = bcache.VersionBdevWithOffset
			sb.SetDataOffset(24)
			sb.Flags.SetBdevCacheMode(bcache.CacheModeWriteback)
			sb.Flags.SetBdevState(bcache.BdevStateDirty)
			return sb
		}(),
		"unknown-version": func() bcache.Superblock {
			sb := testSuperblock()
			sb.Version = bcache.Version(77)
			return sb
		}(),
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			dat, err := binstruct.Marshal(tc)
			require.NoError(t, err)
			require.Len(t, dat, bcache.SBSize)

			var got bcache.Superblock
			n, err := binstruct.Unmarshal(dat, &got)
			require.NoError(t, err)
			assert.Equal(t, bcache.SBSize, n)
			assert.Equal(t, tc, got)
		})
	}
}

func TestSuperblockCsum(t *testing.T) {
	t.Parallel()
	sb := testSuperblock()

	csum, err := sb.CalculateCsum()
	require.NoError(t, err)

	// Cross-check the hashed range: everything after the csum
	// field itself, up through the live journal entries.
	dat, err := binstruct.Marshal(sb)
	require.NoError(t, err)
	end := 0xd0 + 8*int(sb.NJournalBuckets)
	assert.Equal(t, bcachesum.Sum(dat[8:end]), csum)

	assert.False(t, sb.CsumMatches())
	sb.Csum = csum
	assert.True(t, sb.CsumMatches())
	assert.NoError(t, sb.ValidateCsum())

	sb.Csum++
	err = sb.ValidateCsum()
	assert.ErrorContains(t, err, "superblock csum mismatch")
}

func TestSuperblockCsumHonorsKeys(t *testing.T) {
	t.Parallel()
	a := testSuperblock()
	b := testSuperblock()

	// Journal entries beyond NJournalBuckets are dead weight and
	// must not affect the csum.
	b.D[200] = 0xdeadbeef
	aSum, err := a.CalculateCsum()
	require.NoError(t, err)
	bSum, err := b.CalculateCsum()
	require.NoError(t, err)
	assert.Equal(t, aSum, bSum)

	// Entries inside the live range must.
	b.D[1] = 42
	bSum, err = b.CalculateCsum()
	require.NoError(t, err)
	assert.NotEqual(t, aSum, bSum)
}

func TestSuperblockPredicates(t *testing.T) {
	t.Parallel()
	sb := testSuperblock()
	assert.True(t, sb.HasMagic())
	assert.False(t, sb.IsBdev())
	sb.Magic[0] ^= 0xff
	assert.False(t, sb.HasMagic())

	sb.Version = bcache.VersionBdev
	assert.True(t, sb.IsBdev())
	sb.Version = bcache.VersionBdevWithOffset
	assert.True(t, sb.IsBdev())
	sb.Version = bcache.VersionCdevWithUUID
	assert.False(t, sb.IsBdev())
}

func TestSuperblockDataOffset(t *testing.T) {
	t.Parallel()
	sb := testSuperblock()
	sb.Version = bcache.VersionBdev
	sb.NBuckets = 0
	assert.EqualValues(t, bcache.DataStartDefault, sb.DataOffset())

	sb.Version = bcache.VersionBdevWithOffset
	sb.SetDataOffset(24)
	assert.EqualValues(t, 24, sb.DataOffset())
}

func TestSuperblockLabel(t *testing.T) {
	t.Parallel()
	sb := testSuperblock()
	assert.Equal(t, "hello", sb.LabelString())
	sb.Label = [bcache.SBLabelSize]byte{}
	assert.Equal(t, "", sb.LabelString())
}
