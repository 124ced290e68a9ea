// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/textui"
)

// Request carries the parameters for formatting one device, with all
// defaults already resolved (Run does that resolution for a whole
// invocation).
type Request struct {
	Bdev bool // backing device, not cache

	BlockSize  uint16 // sectors
	BucketSize uint16 // sectors

	DeviceUUID bcache.UUID
	SetUUID    bcache.UUID

	// cache devices
	Discard          bool
	CacheReplacement bcache.CacheReplacement

	// backing devices
	WriteBack  bool
	Dirty      bool
	DataOffset uint64 // sectors
	SBNum      int

	Wipe   bool
	Marker bcache.Marker

	// Probe looks for a foreign signature before any write; nil
	// means BlkidProbe.
	Probe SignatureProbe

	// Out receives the user-facing summary blocks; nil discards
	// them.
	Out io.Writer
}

// Report describes what Format wrote.
type Report struct {
	Dev string

	// SB is the primary record at slot 0.
	SB bcache.Superblock

	// Secondaries are the independent records written at slots
	// 1..SBNum-1 of a backing device.
	Secondaries []bcache.Superblock
}

// Format writes a fresh superblock (and, for backing devices, the
// secondary slots; for cache devices, a zeroed journal) to dev.
//
// A failure part-way through can leave the device partially written;
// nothing here is crash-atomic.
func Format(ctx context.Context, dev string, req Request) (*Report, error) {
	if req.Out == nil {
		req.Out = io.Discard
	}
	ctx = dlog.WithField(ctx, "bcache.dev", dev)

	f, err := diskio.OpenExclusive[bcache.DevAddr](dev)
	if err != nil {
		return nil, err
	}
	defer func() {
		if f != nil {
			_ = f.Close()
		}
	}()

	dat := make([]byte, bcache.SBSize)
	if err := diskio.ReadAt(f, dat, bcache.SlotOffset(0)); err != nil {
		return nil, err
	}
	var sb bcache.Superblock
	if _, err := binstruct.Unmarshal(dat, &sb); err != nil {
		return nil, err
	}
	if sb.HasMagic() && !req.Wipe {
		return nil, &AlreadyFormattedError{Dev: dev}
	}

	probe := req.Probe
	if probe == nil {
		probe = BlkidProbe
	}
	sig, err := probe(ctx, dev)
	if err != nil {
		return nil, err
	}
	if sig != "" {
		return nil, &ForeignSignatureError{Dev: dev, Signature: sig}
	}

	sb = bcache.Superblock{
		Offset:     bcache.SBSector,
		Version:    bcache.VersionCdev,
		Magic:      bcache.Magic,
		UUID:       req.DeviceUUID,
		SetUUID:    req.SetUUID,
		BlockSize:  req.BlockSize,
		BucketSize: req.BucketSize,
	}

	if req.Bdev {
		sb.Version = bcache.VersionBdev
		if req.Dirty {
			sb.Flags.SetBdevState(bcache.BdevStateDirty)
		}
		mode := bcache.CacheModeWritethrough
		if req.WriteBack {
			mode = bcache.CacheModeWriteback
		}
		sb.Flags.SetBdevCacheMode(mode)

		if req.DataOffset != bcache.DataStartDefault {
			sb.Version = bcache.VersionBdevWithOffset
			sb.SetDataOffset(req.DataOffset)
			if minOff := bcache.MinDataOffset(req.SBNum); req.DataOffset < minOff {
				return nil, &DataOffsetTooSmallError{Got: req.DataOffset, Min: minOff}
			}
		}

		if err := summarizeBdev(req.Out, &sb, "UUID:\t\t\t", req.DataOffset); err != nil {
			return nil, err
		}
	} else {
		sectors, err := diskio.SectorCount(f)
		if err != nil {
			return nil, err
		}
		sb.NBuckets = sectors / uint64(req.BucketSize)
		sb.NrInSet = 1
		sb.FirstBucket = 23/req.BucketSize + 1

		if sb.NBuckets < bcache.MinCacheBuckets {
			return nil, &InsufficientBucketsError{Dev: dev, Got: sb.NBuckets, Need: bcache.MinCacheBuckets}
		}

		sb.Flags.SetCacheDiscard(req.Discard)
		sb.Flags.SetCacheReplacement(req.CacheReplacement)

		if err := summarizeCache(req.Out, &sb); err != nil {
			return nil, err
		}
	}

	csum, err := sb.CalculateCsum()
	if err != nil {
		return nil, err
	}
	sb.Csum = csum

	dlog.Debugf(ctx, "writing %v superblock", sb.Version)

	zeroes := make([]byte, bcache.SBStart)
	if err := diskio.WriteAt(f, zeroes, bcache.DevAddr(0)); err != nil {
		return nil, err
	}
	if marker := req.Marker.Bytes(); marker != nil {
		if err := diskio.WriteAt(f, marker, bcache.DevAddr(0)); err != nil {
			return nil, err
		}
	}
	dat, err = binstruct.Marshal(sb)
	if err != nil {
		return nil, err
	}
	if err := diskio.WriteAt(f, dat, bcache.SlotOffset(0)); err != nil {
		return nil, err
	}

	report := &Report{Dev: dev, SB: sb}
	if req.Bdev {
		for i := 1; i < req.SBNum; i++ {
			sec := sb
			sec.UUID = bcache.GenerateUUID()
			sec.SetUUID = bcache.GenerateUUID()
			csum, err := sec.CalculateCsum()
			if err != nil {
				return nil, err
			}
			sec.Csum = csum

			if err := summarizeBdev(req.Out, &sec, "secondary UUID:\t\t", req.DataOffset); err != nil {
				return nil, err
			}
			dat, err := binstruct.Marshal(sec)
			if err != nil {
				return nil, err
			}
			if err := diskio.WriteAt(f, dat, bcache.SlotOffset(i)); err != nil {
				return nil, err
			}
			report.Secondaries = append(report.Secondaries, sec)
		}
	} else {
		if err := zeroJournal(ctx, f, &sb, zeroes); err != nil {
			return nil, err
		}
	}

	if err := f.Sync(); err != nil {
		return nil, &diskio.DeviceAccessError{Dev: dev, Op: "sync", Err: err}
	}
	closeErr := f.Close()
	f = nil
	if closeErr != nil {
		return nil, &diskio.DeviceAccessError{Dev: dev, Op: "close", Err: closeErr}
	}
	return report, nil
}

// zeroJournal clears the journal region of a fresh cache device:
// buckets FirstBucket through min(NBuckets, FirstBucket+256), a
// sector-8-sized chunk at a time.
func zeroJournal(ctx context.Context, f diskio.File[bcache.DevAddr], sb *bcache.Superblock, zeroes []byte) error {
	first := uint64(sb.FirstBucket)
	end := sb.NBuckets
	if lim := first + bcache.SBJournalBuckets; end > lim {
		end = lim
	}

	ctx = dlog.WithField(ctx, "bcache.step", "zero-journal")
	dlog.Debugf(ctx, "zeroing journal buckets %v through %v", first, end-1)

	stats := textui.Portion[uint64]{D: end - first}
	progress := textui.NewProgress[textui.Portion[uint64]](ctx, dlog.LogLevelInfo, textui.Tunable(1*time.Second))
	defer progress.Done()
	progress.Set(stats)

	for i := first; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		off := sb.BucketOffset(i)
		for bucketEnd := sb.BucketOffset(i + 1); off < bucketEnd; {
			chunk := bucketEnd - off
			if chunk > bcache.DevAddr(len(zeroes)) {
				chunk = bcache.DevAddr(len(zeroes))
			}
			if err := diskio.WriteAt(f, zeroes[:chunk], off); err != nil {
				return err
			}
			off += chunk
		}
		stats.N = i - first + 1
		progress.Set(stats)
	}
	return nil
}

func summarizeCache(w io.Writer, sb *bcache.Superblock) error {
	_, err := fmt.Fprintf(w,
		"UUID:\t\t\t%v\n"+
			"Set UUID:\t\t%v\n"+
			"version:\t\t%d\n"+
			"nbuckets:\t\t%d\n"+
			"block_size:\t\t%d\n"+
			"bucket_size:\t\t%d\n"+
			"nr_in_set:\t\t%d\n"+
			"nr_this_dev:\t\t%d\n"+
			"first_bucket:\t\t%d\n",
		sb.UUID, sb.SetUUID,
		uint64(sb.Version),
		sb.NBuckets,
		sb.BlockSize,
		sb.BucketSize,
		sb.NrInSet,
		sb.NrThisDev,
		sb.FirstBucket)
	return err
}

func summarizeBdev(w io.Writer, sb *bcache.Superblock, uuidField string, dataOffset uint64) error {
	_, err := fmt.Fprintf(w,
		uuidField+"%v\n"+
			"Set UUID:\t\t%v\n"+
			"version:\t\t%d\n"+
			"block_size:\t\t%d\n"+
			"data_offset:\t\t%d\n",
		sb.UUID, sb.SetUUID,
		uint64(sb.Version),
		sb.BlockSize,
		dataOffset)
	return err
}
