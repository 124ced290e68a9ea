// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package textui_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/textui"
)

func TestFprintf(t *testing.T) {
	t.Parallel()
	var out strings.Builder
	textui.Fprintf(&out, "%d", 12345)
	assert.Equal(t, "12,345", out.String())
}

func TestHumanized(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12,345", fmt.Sprint(textui.Humanized(12345)))
	assert.Equal(t, "12,345  ", fmt.Sprintf("%-8d", textui.Humanized(12345)))

	addr := bcache.DevAddr(345243543)
	assert.Equal(t, "345,243,543", fmt.Sprintf("%d", textui.Humanized(addr)))
	assert.Equal(t, "345,243,543", fmt.Sprintf("%d", textui.Humanized(uint64(addr))))
}

func TestPortion(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "100% (0/0)", fmt.Sprint(textui.Portion[int]{}))
	assert.Equal(t, "0% (1/12,345)", fmt.Sprint(textui.Portion[int]{N: 1, D: 12345}))
	assert.Equal(t, "100% (0/0)", fmt.Sprint(textui.Portion[bcache.DevAddr]{}))
	assert.Equal(t, "0% (1/12,345)", fmt.Sprint(textui.Portion[bcache.DevAddr]{N: 1, D: 12345}))
}

func TestIEC(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "512B", fmt.Sprint(textui.IEC(512, "B")))
	assert.Equal(t, "4KiB", fmt.Sprint(textui.IEC(4096, "B")))
	assert.Equal(t, "1.5KiB", fmt.Sprint(textui.IEC(1536, "B")))
	assert.Equal(t, "1MiB", fmt.Sprint(textui.IEC(1<<20, "B")))
}
