// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
)

func TestParseUUID(t *testing.T) {
	t.Parallel()
	type TestCase struct {
		Input     string
		OutputVal bcache.UUID
		OutputErr bool
	}
	testcases := map[string]TestCase{
		"basic": {
			Input: "a0dd94ed-e60c-42e8-8632-64e8d4765a43",
			OutputVal: bcache.UUID{
				0xa0, 0xdd, 0x94, 0xed, 0xe6, 0x0c, 0x42, 0xe8,
				0x86, 0x32, 0x64, 0xe8, 0xd4, 0x76, 0x5a, 0x43,
			},
		},
		"too-long": {Input: "a0dd94ed-e60c-42e8-8632-64e8d4765a43a", OutputErr: true},
		"bad-char": {Input: "a0dd94ej-e60c-42e8-8632-64e8d4765a43", OutputErr: true},
		"empty":    {Input: "", OutputErr: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			val, err := bcache.ParseUUID(tc.Input)
			if tc.OutputErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.OutputVal, val)
			}
		})
	}
}

func TestUUIDString(t *testing.T) {
	t.Parallel()
	const str = "a0dd94ed-e60c-42e8-8632-64e8d4765a43"
	uuid := bcache.MustParseUUID(str)
	assert.Equal(t, str, uuid.String())
	assert.Equal(t, str, fmt.Sprintf("%v", uuid))
	assert.Equal(t, "a0dd94ede60c42e8863264e8d4765a43", fmt.Sprintf("%x", uuid))

	assert.True(t, bcache.UUID{}.IsZero())
	assert.False(t, uuid.IsZero())
}

func TestUUIDText(t *testing.T) {
	t.Parallel()
	const str = "a0dd94ed-e60c-42e8-8632-64e8d4765a43"
	uuid := bcache.MustParseUUID(str)

	text, err := uuid.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, str, string(text))

	var got bcache.UUID
	require.NoError(t, got.UnmarshalText(text))
	assert.Equal(t, uuid, got)
}

func TestGenerateUUID(t *testing.T) {
	t.Parallel()
	a := bcache.GenerateUUID()
	b := bcache.GenerateUUID()
	assert.False(t, a.IsZero())
	assert.False(t, b.IsZero())
	assert.NotEqual(t, a, b)
}
