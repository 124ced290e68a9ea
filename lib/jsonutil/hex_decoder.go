// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package jsonutil

import (
	"fmt"
	"io"
)

type invalidHexRuneError rune

func (e invalidHexRuneError) Error() string {
	return fmt.Sprintf("jsonutil: invalid hex digit: %q", rune(e))
}

func fromHexChar(r rune) (byte, bool) {
	switch {
	case '0' <= r && r <= '9':
		return byte(r - '0'), true
	case 'a' <= r && r <= 'f':
		return byte(r-'a') + 10, true
	case 'A' <= r && r <= 'F':
		return byte(r-'A') + 10, true
	}
	return 0, false
}

// hexDecoder is like an encoding/hex.Decoder, but has a "push"
// interface rather than a "pull" interface.
type hexDecoder struct {
	dst io.ByteWriter

	buf   byte
	bufOK bool
}

func (d *hexDecoder) WriteRune(r rune) (int, error) {
	v, ok := fromHexChar(r)
	if !ok {
		return 0, invalidHexRuneError(r)
	}

	if !d.bufOK {
		d.buf = v
		d.bufOK = true
		return 1, nil
	}
	d.bufOK = false
	return 1, d.dst.WriteByte(d.buf<<4 | v)
}

func (d *hexDecoder) Close() error {
	if d.bufOK {
		return io.ErrUnexpectedEOF
	}
	return nil
}
