// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package sysfs answers block-device topology questions from the
// /sys/block tree.  It only asks whether paths exist; it never reads
// device content.
package sysfs

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// Tree is a view of a /sys/block-shaped directory tree.  The
// filesystem is an injected capability so tests can run against
// afero.NewMemMapFs().
type Tree struct {
	fs   afero.Fs
	root string
}

// DefaultTree is the kernel's real /sys/block.
func DefaultTree() *Tree {
	return NewTree(afero.NewOsFs(), "/sys/block")
}

func NewTree(fs afero.Fs, root string) *Tree {
	return &Tree{fs: fs, root: root}
}

func (t *Tree) dirExists(elem ...string) bool {
	ok, err := afero.DirExists(t.fs, filepath.Join(append([]string{t.root}, elem...)...))
	return err == nil && ok
}

func (t *Tree) exists(elem ...string) bool {
	ok, err := afero.Exists(t.fs, filepath.Join(append([]string{t.root}, elem...)...))
	return err == nil && ok
}

// ParentDevice resolves the whole-disk name that a partition name
// belongs to, confirming each candidate against the tree (a
// partition appears as /sys/block/<disk>/<partition>/).
//
// The name is split at its trailing digit run: "sda1" tries "sda";
// "nvme0n1p1" tries "nvme0n1p" and then, because the digits follow an
// interior 'p', falls back to "nvme0n1".  Trying the digit-stripped
// candidate first keeps disks that themselves end in 'p' working
// ("sdp1" resolves to "sdp").  A name with no trailing digits, or
// one that is all digits, has no parent; neither does a whole-disk
// name like "drbd1" whose candidates are absent from the tree.
func (t *Tree) ParentDevice(name string) (string, bool) {
	if len(name) < 2 {
		return "", false
	}
	digitStart := 0 // first index of the trailing digit run; 0 = no run
	pStart := 0     // index of an interior 'p' just before the run; 0 = none
	for i := len(name) - 1; i >= 0; i-- {
		c := name[i]
		if c < '0' || c > '9' {
			if c == 'p' && i != len(name)-1 {
				pStart = i
			}
			break
		}
		digitStart = i
	}
	if digitStart == 0 {
		return "", false
	}
	if parent := name[:digitStart]; t.dirExists(parent, name) {
		return parent, true
	}
	if pStart == 0 {
		return "", false
	}
	if parent := name[:pStart]; t.dirExists(parent, name) {
		return parent, true
	}
	return "", false
}

// IsRegistered reports whether the named device is held by the
// caching driver: its sysfs node (under the parent disk, for
// partitions) carries an escache directory.
func (t *Tree) IsRegistered(name string) bool {
	if parent, ok := t.ParentDevice(name); ok {
		return t.exists(parent, name, "escache")
	}
	return t.exists(name, "escache")
}

// IsAlcubierreRegistered reports whether the named device is attached
// to a cache set.  Only the whole-disk node is consulted.
func (t *Tree) IsAlcubierreRegistered(name string) bool {
	return t.exists(name, "escache", "set")
}
