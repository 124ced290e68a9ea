// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package jsonutil provides utilities for implementing the interfaces
// consumed by the "git.lukeshu.com/go/lowmemjson" package.
package jsonutil

import (
	"io"

	"git.lukeshu.com/go/lowmemjson"
)

// EncodeHexString encodes str as a JSON string of lower-case hex
// digits, 2 digits per byte.
func EncodeHexString[T ~[]byte | ~string](w io.Writer, str T) error {
	const hextable = "0123456789abcdef"
	var buf [2]byte
	buf[0] = '"'
	if _, err := w.Write(buf[:1]); err != nil {
		return err
	}
	for i := 0; i < len(str); i++ {
		buf[0] = hextable[str[i]>>4]
		buf[1] = hextable[str[i]&0x0f]
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	buf[0] = '"'
	if _, err := w.Write(buf[:1]); err != nil {
		return err
	}
	return nil
}

// DecodeHexString decodes a JSON string of hex digits, writing the
// decoded bytes to dst.
func DecodeHexString(r io.RuneScanner, dst io.ByteWriter) error {
	dec := &hexDecoder{dst: dst}
	if err := lowmemjson.DecodeString(r, dec); err != nil {
		return err
	}
	return dec.Close()
}

// EncodeSplitHexString is like EncodeHexString, but if the hex string
// would be longer than maxStrLen digits, then it is split in to a
// JSON array of strings of at most maxStrLen digits each.
func EncodeSplitHexString[T ~[]byte | ~string](w io.Writer, str T, maxStrLen int) error {
	if maxStrLen < 2 || len(str)*2 <= maxStrLen {
		return EncodeHexString(w, str)
	}
	chunkSize := maxStrLen / 2
	var buf [1]byte
	buf[0] = '['
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	for i := 0; i < len(str); i += chunkSize {
		if i > 0 {
			buf[0] = ','
			if _, err := w.Write(buf[:]); err != nil {
				return err
			}
		}
		end := i + chunkSize
		if end > len(str) {
			end = len(str)
		}
		if err := EncodeHexString(w, str[i:end]); err != nil {
			return err
		}
	}
	buf[0] = ']'
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	return nil
}

// DecodeSplitHexString decodes either form emitted by
// EncodeSplitHexString; the chunk boundaries of an array form are not
// significant.
func DecodeSplitHexString(r io.RuneScanner, dst io.ByteWriter) error {
	c, _, err := r.ReadRune()
	for err == nil && (c == 0x20 || c == 0x0A || c == 0x0D || c == 0x09) {
		c, _, err = r.ReadRune()
	}
	if err != nil {
		return err
	}
	if err := r.UnreadRune(); err != nil {
		return err
	}
	if c == '[' {
		return lowmemjson.DecodeArray(r, func(r io.RuneScanner) error {
			return DecodeHexString(r, dst)
		})
	}
	return DecodeHexString(r, dst)
}
