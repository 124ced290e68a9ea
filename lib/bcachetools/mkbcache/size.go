// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache

import (
	"fmt"
	"math"
	"strconv"
)

// ParseSize parses a human block/bucket size in to sectors: a decimal
// byte count with an optional k/m/g/t suffix (case-insensitive, each
// step multiplying by 1024, so "1t" is 1024⁴).  The byte count must
// be a power of two, and the sector count must be nonzero and fit in
// 16 bits.  what names the size in error messages ("block size",
// "bucket size").
func ParseSize(str, what string) (uint16, error) {
	end := 0
	if end < len(str) && (str[end] == '+' || str[end] == '-') {
		end++
	}
	for end < len(str) && '0' <= str[end] && str[end] <= '9' {
		end++
	}
	// A malformed or overflowing prefix degrades the same way
	// strtoll does: zero or clamped, then caught below.
	n, _ := strconv.ParseInt(str[:end], 10, 64)
	v := uint64(n)
	if end < len(str) {
		switch str[end] {
		case 't', 'T':
			v *= 1024
			fallthrough
		case 'g', 'G':
			v *= 1024
			fallthrough
		case 'm', 'M':
			v *= 1024
			fallthrough
		case 'k', 'K':
			v *= 1024
		}
	}

	if v&(v-1) != 0 {
		return 0, fmt.Errorf("%s must be a power of two", what)
	}
	v /= 512
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("%s too large", what)
	}
	if v == 0 {
		return 0, fmt.Errorf("%s too small", what)
	}
	return uint16(v), nil
}
