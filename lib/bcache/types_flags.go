// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache

import (
	"fmt"
	"strings"
)

// Flags is the bit-packed flags word of a superblock.  Which bits
// mean what depends on the device kind: cache devices use the sync,
// discard, and replacement-policy fields; backing devices use the
// cache-mode and state fields.
type Flags uint64

func (f Flags) get(offset, size int) uint64 {
	return uint64(f) >> offset & (1<<size - 1)
}

func (f *Flags) set(offset, size int, v uint64) {
	*f &^= Flags(uint64(1<<size-1) << offset)
	*f |= Flags(v << offset)
}

// Cache-device fields.

func (f Flags) CacheSync() bool { return f.get(0, 1) != 0 }

func (f *Flags) SetCacheSync(v bool) { f.set(0, 1, boolBit(v)) }

func (f Flags) CacheDiscard() bool { return f.get(1, 1) != 0 }

func (f *Flags) SetCacheDiscard(v bool) { f.set(1, 1, boolBit(v)) }

func (f Flags) CacheReplacement() CacheReplacement {
	return CacheReplacement(f.get(2, 3))
}

func (f *Flags) SetCacheReplacement(v CacheReplacement) { f.set(2, 3, uint64(v)) }

// Backing-device fields.

func (f Flags) BdevCacheMode() CacheMode { return CacheMode(f.get(0, 4)) }

func (f *Flags) SetBdevCacheMode(v CacheMode) { f.set(0, 4, uint64(v)) }

func (f Flags) BdevState() BdevState { return BdevState(f.get(61, 2)) }

func (f *Flags) SetBdevState(v BdevState) { f.set(61, 2, uint64(v)) }

func boolBit(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

// CacheReplacement is a cache device's bucket replacement policy.
type CacheReplacement uint64

const (
	ReplacementLRU    = CacheReplacement(0)
	ReplacementFIFO   = CacheReplacement(1)
	ReplacementRandom = CacheReplacement(2)
)

func (p CacheReplacement) String() string {
	switch p {
	case ReplacementLRU:
		return "lru"
	case ReplacementFIFO:
		return "fifo"
	case ReplacementRandom:
		return "random"
	default:
		return fmt.Sprintf("unknown (%d)", uint64(p))
	}
}

// ParseCacheReplacement parses a policy name, ignoring surrounding
// whitespace.
func ParseCacheReplacement(s string) (CacheReplacement, error) {
	switch strings.TrimSpace(s) {
	case "lru":
		return ReplacementLRU, nil
	case "fifo":
		return ReplacementFIFO, nil
	case "random":
		return ReplacementRandom, nil
	default:
		return 0, fmt.Errorf("invalid cache replacement policy: %q", s)
	}
}

// CacheMode is how a backing device wants its writes cached.
type CacheMode uint64

const (
	CacheModeWritethrough = CacheMode(0)
	CacheModeWriteback    = CacheMode(1)
	CacheModeWritearound  = CacheMode(2)
	CacheModeNone         = CacheMode(3)
)

func (m CacheMode) String() string {
	switch m {
	case CacheModeWritethrough:
		return "writethrough"
	case CacheModeWriteback:
		return "writeback"
	case CacheModeWritearound:
		return "writearound"
	case CacheModeNone:
		return "none"
	default:
		return fmt.Sprintf("unknown (%d)", uint64(m))
	}
}

// BdevState is what the cache set last knew about a backing device's
// data.
type BdevState uint64

const (
	BdevStateNone  = BdevState(0)
	BdevStateClean = BdevState(1)

	// BdevStateDirty marks data on the cache not yet written
	// back; the kernel will resume writeback after attach.
	BdevStateDirty = BdevState(2)
	BdevStateStale = BdevState(3)
)

func (s BdevState) String() string {
	switch s {
	case BdevStateNone:
		return "none"
	case BdevStateClean:
		return "clean"
	case BdevStateDirty:
		return "dirty"
	case BdevStateStale:
		return "stale"
	default:
		return fmt.Sprintf("unknown (%d)", uint64(s))
	}
}
