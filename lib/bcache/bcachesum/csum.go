// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package bcachesum implements the CRC-64 that guards bcache
// superblocks.
//
// The format uses the ECMA-182 polynomial fed most-significant-bit
// first, with the register inverted on both ends.  That is not the
// checksum computed by hash/crc64, whose ECMA table is bit-reflected
// and yields different values for the same bytes.
package bcachesum

const poly = 0x42F0E1EBA9EA3693

var table = func() (tab [256]uint64) {
	for i := range tab {
		crc := uint64(i) << 56
		for bit := 0; bit < 8; bit++ {
			if crc&(1<<63) != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}()

// Sum returns the checksum of dat.
func Sum(dat []byte) uint64 {
	return Update(0, dat)
}

// Update continues a checksum: Update(Update(0, a), b) == Sum(a+b).
func Update(crc uint64, dat []byte) uint64 {
	crc = ^crc
	for _, b := range dat {
		crc = table[byte(crc>>56)^b] ^ (crc << 8)
	}
	return ^crc
}
