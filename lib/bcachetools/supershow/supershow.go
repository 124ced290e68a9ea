// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package supershow decodes and reports the superblock of a formatted
// device, without modifying anything.
package supershow

import (
	"context"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/datawire/dlib/dlog"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/binstruct"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/jsonutil"
)

type Options struct {
	// Slot selects which superblock slot to read; 0 is the
	// primary.
	Slot int

	// Force reports on a record whose magic does not check out,
	// instead of failing.
	Force bool
}

// Report is one decoded superblock, plus the checksum recomputed from
// what was actually on disk.
type Report struct {
	Dev  string
	Slot int

	// CalculatedCsum is recomputed over the record as read; on an
	// intact superblock it equals the stored csum.
	CalculatedCsum uint64

	// Raw is the record as read; its JSON form is the hex of the
	// on-disk encoding.
	Raw jsonutil.Binary[bcache.Superblock]
}

func (r *Report) SB() *bcache.Superblock { return &r.Raw.Val }

// Show reads and decodes the superblock at opts.Slot of dev.  A bad
// checksum is reported, not an error; a bad magic is an error unless
// opts.Force.
func Show(ctx context.Context, dev string, opts Options) (*Report, error) {
	if opts.Slot < 0 || opts.Slot >= bcache.MaxBdevSuperblocks {
		return nil, fmt.Errorf("bad superblock index %v, maximum index: %v",
			opts.Slot, bcache.MaxBdevSuperblocks-1)
	}
	ctx = dlog.WithField(ctx, "bcache.dev", dev)

	f, err := diskio.OpenReadOnly[bcache.DevAddr](dev)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	dat := make([]byte, bcache.SBSize)
	if err := diskio.ReadAt(f, dat, bcache.SlotOffset(opts.Slot)); err != nil {
		return nil, err
	}
	ret := &Report{Dev: dev, Slot: opts.Slot}
	if _, err := binstruct.Unmarshal(dat, ret.SB()); err != nil {
		return nil, err
	}
	dlog.Debugf(ctx, "decoded superblock: %s", spew.Sdump(*ret.SB()))

	if !ret.SB().HasMagic() && !opts.Force {
		return nil, fmt.Errorf("bad magic on %v slot %v (not a bcache superblock); --force overrides",
			dev, opts.Slot)
	}

	ret.CalculatedCsum, err = ret.SB().CalculateCsum()
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Render writes the report in the traditional super-show text form.
func (r *Report) Render(w io.Writer) (err error) {
	line := func(key string, format string, a ...any) {
		if err != nil {
			return
		}
		if key == "" {
			_, err = fmt.Fprintln(w)
			return
		}
		_, err = fmt.Fprintf(w, "%-24s"+format+"\n", append([]any{key}, a...)...)
	}
	sb := r.SB()

	if sb.HasMagic() {
		line("sb.magic", "ok")
	} else {
		line("sb.magic", "bad magic")
	}
	if sb.Offset == bcache.SBSector {
		line("sb.first_sector", "%v [match]", sb.Offset)
	} else {
		line("sb.first_sector", "%v [expect %v]", sb.Offset, bcache.SBSector)
	}
	if r.CalculatedCsum == sb.Csum {
		line("sb.csum", "%016X [match]", sb.Csum)
	} else {
		line("sb.csum", "%016X [expected %016X]", sb.Csum, r.CalculatedCsum)
	}
	line("sb.version", "%v [%v]", uint64(sb.Version), sb.Version)
	line("", "")
	line("dev.label", "%s", labelOrEmpty(sb))
	line("dev.uuid", "%v", sb.UUID)
	line("dev.sectors_per_block", "%v", sb.BlockSize)
	line("dev.sectors_per_bucket", "%v", sb.BucketSize)

	if sb.IsBdev() {
		line("dev.data.first_sector", "%v", sb.DataOffset())
		mode := sb.Flags.BdevCacheMode()
		line("dev.data.cache_mode", "%v [%v]", uint64(mode), mode)
		state := sb.Flags.BdevState()
		line("dev.data.cache_state", "%v [%v]", uint64(state), state)
	} else {
		line("dev.cache.nbuckets", "%v", sb.NBuckets)
		line("dev.cache.first_bucket", "%v", sb.FirstBucket)
		line("dev.cache.nr_in_set", "%v", sb.NrInSet)
		line("dev.cache.nr_this_dev", "%v", sb.NrThisDev)
		line("dev.cache.sync", "%v", yesno(sb.Flags.CacheSync()))
		line("dev.cache.discard", "%v", yesno(sb.Flags.CacheDiscard()))
		policy := sb.Flags.CacheReplacement()
		line("dev.cache.replacement", "%v [%v]", uint64(policy), policy)
	}
	line("", "")
	line("cset.uuid", "%v", sb.SetUUID)
	return err
}

func labelOrEmpty(sb *bcache.Superblock) string {
	if label := sb.LabelString(); label != "" {
		return label
	}
	return "(empty)"
}

func yesno(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
