// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache

import (
	"fmt"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
)

// MarkerSize is how many bytes of sector 0 a marker occupies.
const MarkerSize = 10

const (
	markerAlcubierre = "alcubierre"
	markerSkipUdev   = "##skipudev"
)

// Marker is the sentinel written at byte 0 of a formatted device to
// tell the udev machinery how (or whether) to auto-register it.
type Marker int

const (
	MarkerNone = Marker(iota)

	// MarkerAlcubierre tags a device managed by the alcubierre
	// flow; it implies the skip-udev semantics.
	MarkerAlcubierre

	// MarkerSkipUdev tags a device the udev rules must not
	// auto-register.
	MarkerSkipUdev
)

func (m Marker) String() string {
	switch m {
	case MarkerNone:
		return "none"
	case MarkerAlcubierre:
		return "alcubierre"
	case MarkerSkipUdev:
		return "skip-udev"
	default:
		return fmt.Sprintf("unknown (%d)", int(m))
	}
}

// Bytes returns the on-disk form, or nil for MarkerNone.
func (m Marker) Bytes() []byte {
	switch m {
	case MarkerAlcubierre:
		return []byte(markerAlcubierre)
	case MarkerSkipUdev:
		return []byte(markerSkipUdev)
	default:
		return nil
	}
}

// SkipsRegistration reports whether the marker tells udev to leave
// the device alone.
func (m Marker) SkipsRegistration() bool {
	return m == MarkerAlcubierre || m == MarkerSkipUdev
}

// ReadMarker classifies the sentinel at the start of f.  Getting
// fewer than MarkerSize bytes is an error, not MarkerNone.
func ReadMarker[A ~int64](f diskio.File[A]) (Marker, error) {
	var buf [MarkerSize]byte
	if err := diskio.ReadAt(f, buf[:], 0); err != nil {
		return MarkerNone, err
	}
	switch string(buf[:]) {
	case markerAlcubierre:
		return MarkerAlcubierre, nil
	case markerSkipUdev:
		return MarkerSkipUdev, nil
	default:
		return MarkerNone, nil
	}
}
