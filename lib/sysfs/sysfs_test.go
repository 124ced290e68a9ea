// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package sysfs_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/sysfs"
)

func testTree(t *testing.T, dirs ...string) *sysfs.Tree {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll("/sys/block/"+dir, 0o755))
	}
	return sysfs.NewTree(fs, "/sys/block")
}

func TestParentDevice(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Dirs      []string
		Input     string
		OutputVal string
		OutputOK  bool
	}
	testcases := map[string]TestCase{
		"partition": {
			Dirs:      []string{"sda/sda1"},
			Input:     "sda1",
			OutputVal: "sda",
			OutputOK:  true,
		},
		"multi-digit-partition": {
			Dirs:      []string{"sda/sda12"},
			Input:     "sda12",
			OutputVal: "sda",
			OutputOK:  true,
		},
		"nvme-partition": {
			Dirs:      []string{"nvme0n1/nvme0n1p1"},
			Input:     "nvme0n1p1",
			OutputVal: "nvme0n1",
			OutputOK:  true,
		},
		"disk-named-p": {
			Dirs:      []string{"sdp/sdp1"},
			Input:     "sdp1",
			OutputVal: "sdp",
			OutputOK:  true,
		},
		"whole-disk-with-digits": {
			Dirs:  []string{"drbd1"},
			Input: "drbd1",
		},
		"whole-disk": {
			Dirs:  []string{"sda"},
			Input: "sda",
		},
		"nvme-whole-disk": {
			Dirs:  []string{"nvme0n1"},
			Input: "nvme0n1",
		},
		"unknown-name": {
			Input: "xx",
		},
		"too-short": {
			Input: "1",
		},
		"all-digits": {
			Input: "123",
		},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			tree := testTree(t, tc.Dirs...)
			val, ok := tree.ParentDevice(tc.Input)
			assert.Equal(t, tc.OutputOK, ok)
			assert.Equal(t, tc.OutputVal, val)
		})
	}
}

func TestParentDeviceNeedsTree(t *testing.T) {
	t.Parallel()
	// The same name resolves differently depending on what the
	// tree actually contains.
	tree := testTree(t)
	_, ok := tree.ParentDevice("sda1")
	assert.False(t, ok)

	tree = testTree(t, "sda/sda1")
	parent, ok := tree.ParentDevice("sda1")
	assert.True(t, ok)
	assert.Equal(t, "sda", parent)
}

func TestIsRegistered(t *testing.T) {
	t.Parallel()
	tree := testTree(t,
		"vdb/escache",
		"sda/sda1/escache",
		"sdc/sdc1",
		"sdd",
	)
	assert.True(t, tree.IsRegistered("vdb"))
	assert.True(t, tree.IsRegistered("sda1"))
	assert.False(t, tree.IsRegistered("sdc1"))
	assert.False(t, tree.IsRegistered("sdd"))
	assert.False(t, tree.IsRegistered("missing"))
}

func TestIsAlcubierreRegistered(t *testing.T) {
	t.Parallel()
	tree := testTree(t,
		"vdb/escache/set",
		"vdc/escache",
	)
	assert.True(t, tree.IsAlcubierreRegistered("vdb"))
	assert.False(t, tree.IsAlcubierreRegistered("vdc"))
	assert.False(t, tree.IsAlcubierreRegistered("missing"))
}
