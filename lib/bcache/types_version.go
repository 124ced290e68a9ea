// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache

import (
	"fmt"
)

// Version says what kind of device a superblock describes, and which
// revision of the format wrote it.
type Version uint64

const (
	VersionCdev         = Version(0)
	VersionBdev         = Version(1)
	VersionCdevWithUUID = Version(3)

	// VersionBdevWithOffset is a backing device that stores an
	// explicit data offset instead of implying DataStartDefault.
	VersionBdevWithOffset = Version(4)
)

// String names the device kind; the kernel treats the two cache
// versions alike, and likewise the two backing versions.
func (v Version) String() string {
	switch v {
	case VersionCdev, VersionCdevWithUUID:
		return "cache device"
	case VersionBdev, VersionBdevWithOffset:
		return "backing device"
	default:
		return fmt.Sprintf("unknown (%d)", uint64(v))
	}
}
