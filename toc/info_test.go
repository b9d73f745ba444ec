// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/go-rrdat"
)

const sampleInfo = "8192\r\n" +
	"12000\r\n" +
	"data/car 0 1 0 2 0 0 0 0\r\n" +
	"broken line\r\n" +
	"menu 1 1 2 3 1 30 60 0\r\n" +
	"\r\n" +
	"car/body.bin 0 1 0 100 0\r\n" +
	"car/wheel.bin 0 1 0 20 100\r\n" +
	"menu.bin 1 1 0 60 0\r\n" +
	"bad.bin x 1 0 60 0\r\n"

func TestInfoDecode(t *testing.T) {
	var logs bytes.Buffer
	info := NewInfo("", slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, info.Decode(strings.NewReader(sampleInfo)))

	assert.Equal(t, uint64(8192), info.ArchiveSize)
	assert.Equal(t, uint64(12000), info.UncompressedSize)

	containers := info.Containers("any")
	require.Len(t, containers, 2)
	assert.Equal(t, rrdat.ContainerDescriptor{
		Name: "menu", SectorOffset: 1, SectorSize: 1, FileIndexStart: 2, FileIndexEnd: 3,
		Compression: rrdat.CompressionLZ, CompressedSize: 30, UncompressedSize: 60, RecordOffset: -1,
	}, containers[1])
	assert.Equal(t, rrdat.CompressionNone, containers[0].Compression)

	files := info.Files("any")
	require.Len(t, files, 3)
	assert.Equal(t, rrdat.FileDescriptor{
		Name: "car/wheel.bin", SectorOffset: 0, SectorSize: 1, Size: 20, Offset: 100, RecordOffset: -1,
	}, files[1])

	assert.Contains(t, logs.String(), "skipping container line")
	assert.Contains(t, logs.String(), "skipping file line")
}

func TestInfoCompressionTags(t *testing.T) {
	info := NewInfo("", nil)
	require.NoError(t, info.Decode(strings.NewReader(
		"0\n0\n"+
			"raw 0 1 0 0 0 0 0 0\n"+
			"lz 0 1 0 0 1 10 20 0\n"+
			"zlib 0 1 0 0 2 10 20 0\n"+
			"odd 0 1 0 0 3 10 20 0\n")))

	containers := info.Containers("")
	require.Len(t, containers, 4)
	assert.Equal(t, rrdat.CompressionNone, containers[0].Compression)
	assert.Equal(t, rrdat.CompressionLZ, containers[1].Compression)
	assert.Equal(t, rrdat.CompressionDeflate, containers[2].Compression)
	assert.Empty(t, info.Files(""))

	// An unknown tag is kept so that validation refuses it.
	assert.Equal(t, rrdat.CompressionKind(3), containers[3].Compression)
	require.ErrorIs(t, containers[3].Validate(0), rrdat.ErrMalformedHeader)
}

func TestInfoCompressionTagOutOfRange(t *testing.T) {
	info := NewInfo("", nil)
	require.NoError(t, info.Decode(strings.NewReader("0\n0\nbig 0 1 0 0 65537 10 20 0\n")))
	assert.Empty(t, info.Containers(""))
}

func TestInfoMalformedHeader(t *testing.T) {
	tests := map[string]string{
		"empty":             "",
		"bad archive size":  "abc\n0\n",
		"missing line two":  "10\n",
		"bad second number": "10\n-1\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			err := NewInfo("", nil).Decode(strings.NewReader(text))
			require.ErrorIs(t, err, rrdat.ErrMalformedHeader)
		})
	}
}

func TestInfoRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleInfo), 0644))

	info := NewInfo(path, nil)
	require.NoError(t, info.Read())
	assert.Len(t, info.Files(path), 3)

	var locator Locator = info
	assert.Len(t, locator.Containers(path), 2)

	err := NewInfo(filepath.Join(t.TempDir(), "missing.txt"), nil).Read()
	require.ErrorIs(t, err, rrdat.ErrIO)
}
