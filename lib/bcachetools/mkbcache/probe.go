// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package mkbcache

import (
	"context"

	"github.com/siderolabs/go-blockdevice/v2/blkid"
)

// SignatureProbe looks for a foreign superblock or partition table on
// a device, returning the name of whatever it found, or "" when the
// device looks unclaimed.
type SignatureProbe func(ctx context.Context, dev string) (string, error)

// BlkidProbe is the default SignatureProbe.  It does not recognize
// the bcache format itself, which is what lets --wipe-bcache
// actually re-format a device.
func BlkidProbe(ctx context.Context, dev string) (string, error) {
	info, err := blkid.ProbePath(dev)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

var _ SignatureProbe = BlkidProbe
