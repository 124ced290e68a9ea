// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
)

func tmpDevice(t *testing.T, content []byte) *diskio.OSFile[int64] {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.img")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	fh, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fh.Close() })
	return &diskio.OSFile[int64]{File: fh}
}

func TestReadMarker(t *testing.T) {
	t.Parallel()
	pad := make([]byte, 4096)
	type TestCase struct {
		Content   []byte
		OutputVal bcache.Marker
		OutputErr bool
	}
	testcases := map[string]TestCase{
		"zeros":        {Content: pad, OutputVal: bcache.MarkerNone},
		"alcubierre":   {Content: append([]byte("alcubierre"), pad...), OutputVal: bcache.MarkerAlcubierre},
		"skip-udev":    {Content: append([]byte("##skipudev"), pad...), OutputVal: bcache.MarkerSkipUdev},
		"other-bytes":  {Content: append([]byte("0123456789"), pad...), OutputVal: bcache.MarkerNone},
		"short-device": {Content: []byte("alcub"), OutputErr: true},
		"empty-device": {Content: nil, OutputErr: true},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			fh := tmpDevice(t, tc.Content)
			val, err := bcache.ReadMarker(fh)
			if tc.OutputErr {
				var readErr *diskio.DeviceReadError
				require.ErrorAs(t, err, &readErr)
				assert.Equal(t, bcache.MarkerSize, readErr.Len)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.OutputVal, val)
			}
		})
	}
}

func TestMarkerBytes(t *testing.T) {
	t.Parallel()
	assert.Nil(t, bcache.MarkerNone.Bytes())
	assert.Len(t, bcache.MarkerAlcubierre.Bytes(), bcache.MarkerSize)
	assert.Len(t, bcache.MarkerSkipUdev.Bytes(), bcache.MarkerSize)
	assert.Equal(t, "##skipudev", string(bcache.MarkerSkipUdev.Bytes()))

	assert.False(t, bcache.MarkerNone.SkipsRegistration())
	assert.True(t, bcache.MarkerAlcubierre.SkipsRegistration())
	assert.True(t, bcache.MarkerSkipUdev.SkipsRegistration())
}
