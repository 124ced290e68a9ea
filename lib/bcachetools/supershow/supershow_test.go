// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package supershow_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcachetools/mkbcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcachetools/supershow"
)

func noSignature(context.Context, string) (string, error) {
	return "", nil
}

func formatDevice(t *testing.T, req mkbcache.Request) string {
	t.Helper()
	ctx := dlog.NewTestContext(t, false)
	dev := filepath.Join(t.TempDir(), "dev.img")
	require.NoError(t, os.WriteFile(dev, make([]byte, 1<<20), 0o600))
	req.Probe = noSignature
	_, err := mkbcache.Format(ctx, dev, req)
	require.NoError(t, err)
	return dev
}

func TestShowCache(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := formatDevice(t, mkbcache.Request{
		BlockSize:        1,
		BucketSize:       8,
		DeviceUUID:       bcache.GenerateUUID(),
		SetUUID:          bcache.GenerateUUID(),
		Discard:          true,
		CacheReplacement: bcache.ReplacementLRU,
	})

	report, err := supershow.Show(ctx, dev, supershow.Options{})
	require.NoError(t, err)
	sb := report.SB()
	assert.True(t, sb.HasMagic())
	assert.Equal(t, sb.Csum, report.CalculatedCsum)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "sb.magic")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "[match]")
	assert.Contains(t, out, "cache device")
	assert.Contains(t, out, "dev.cache.nbuckets")
	assert.Contains(t, out, sb.UUID.String())
	assert.Contains(t, out, sb.SetUUID.String())
	assert.NotContains(t, out, "dev.data.cache_mode")
}

func TestShowBacking(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := formatDevice(t, mkbcache.Request{
		Bdev:       true,
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
		WriteBack:  true,
		DataOffset: bcache.MinDataOffset(2),
		SBNum:      2,
	})

	for slot := 0; slot < 2; slot++ {
		report, err := supershow.Show(ctx, dev, supershow.Options{Slot: slot})
		require.NoError(t, err, "slot %v", slot)
		assert.True(t, report.SB().IsBdev())
		assert.Equal(t, report.SB().Csum, report.CalculatedCsum)

		var buf bytes.Buffer
		require.NoError(t, report.Render(&buf))
		out := buf.String()
		assert.Contains(t, out, "backing device")
		assert.Contains(t, out, "dev.data.first_sector")
		assert.Contains(t, out, "[writeback]")
	}
}

func TestShowBadMagic(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := filepath.Join(t.TempDir(), "dev.img")
	require.NoError(t, os.WriteFile(dev, make([]byte, 1<<20), 0o600))

	_, err := supershow.Show(ctx, dev, supershow.Options{})
	require.ErrorContains(t, err, "bad magic")

	report, err := supershow.Show(ctx, dev, supershow.Options{Force: true})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf))
	assert.Contains(t, buf.String(), "bad magic")
}

func TestShowBadCsum(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := formatDevice(t, mkbcache.Request{
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
	})

	// Corrupt the label, which the checksum covers; the report
	// must flag the mismatch but still come back.
	fh, err := os.OpenFile(dev, os.O_RDWR, 0)
	require.NoError(t, err)
	_, err = fh.WriteAt([]byte("x"), int64(bcache.SBStart)+0x48)
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	report, err := supershow.Show(ctx, dev, supershow.Options{})
	require.NoError(t, err)
	assert.NotEqual(t, report.SB().Csum, report.CalculatedCsum)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf))
	assert.Contains(t, buf.String(), "[expected ")
}

func TestReportJSON(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	dev := formatDevice(t, mkbcache.Request{
		BlockSize:  1,
		BucketSize: 8,
		DeviceUUID: bcache.GenerateUUID(),
		SetUUID:    bcache.GenerateUUID(),
	})

	report, err := supershow.Show(ctx, dev, supershow.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, lowmemjson.NewEncoder(lowmemjson.NewReEncoder(&buf, lowmemjson.ReEncoderConfig{
		Indent:                "\t",
		ForceTrailingNewlines: true,
	})).Encode(report))
	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, `"Dev"`)
	assert.Contains(t, out, `"Raw"`)
	// The magic sits whole inside the first hex chunk of the raw
	// record.
	assert.Contains(t, out, "c68573f64e1a45ca8265f57f48ba6d81")

	var back supershow.Report
	require.NoError(t, lowmemjson.NewDecoder(strings.NewReader(out)).DecodeThenEOF(&back))
	assert.Equal(t, report.Raw.Val, back.Raw.Val)
	assert.Equal(t, report.CalculatedCsum, back.CalculatedCsum)
}

func TestShowBadSlot(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	_, err := supershow.Show(ctx, "whatever", supershow.Options{Slot: 8})
	require.ErrorContains(t, err, "bad superblock index")
}
