// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// literal encodes a literal run of data (1 to 256 bytes).
func literal(data ...byte) []byte {
	return append([]byte{byte(len(data) - 1), 0xFF}, data...)
}

// backref encodes a back-reference of length 3..34 at distance 1..2048.
func backref(length, distance int) []byte {
	control := uint16(distance-1)<<5 | uint16(length-3)
	return []byte{byte(control), byte(control >> 8)}
}

func lzStream(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// lzFile prefixes stream with the standalone header.
func lzFile(t testing.TB, stream []byte, uncompressed int, skip []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	h := lzHeader{
		Magic:            lzMagic,
		SkipLength:       uint32(len(skip)),
		CompressedSize:   uint32(len(stream)),
		UncompressedSize: uint32(uncompressed),
	}
	require.NoError(t, binary.Write(&buf, binary.BigEndian, &h))
	buf.Write(skip)
	buf.Write(stream)
	return buf.Bytes()
}

// testLayout mirrors the 32-bit big-endian records: 20 byte file records,
// 36 byte container records.
func testLayout() RecordLayout {
	return RecordLayout{
		Order:                     binary.BigEndian,
		FileSectorOffset:          Field{Offset: 4, Width: 4},
		FileSectorSize:            Field{Offset: 8, Width: 2},
		FileSize:                  Field{Offset: 12, Width: 4},
		FileOffset:                Field{Offset: 16, Width: 4},
		ContainerSectorOffset:     Field{Offset: 4, Width: 4},
		ContainerSectorSize:       Field{Offset: 8, Width: 2},
		ContainerCompression:      Field{Offset: 14, Width: 2},
		ContainerCompressedSize:   Field{Offset: 16, Width: 4},
		ContainerUncompressedSize: Field{Offset: 20, Width: 4},
		ArchiveLength:             Field{Offset: 112, Width: 8},
	}
}

const testIndexSize = 120

// fixture is a two container archive on disk: A is raw and holds a.bin,
// B is LZ compressed and holds b.bin.
type fixture struct {
	dir         string
	archivePath string
	indexPath   string
	containers  []ContainerDescriptor
	files       []FileDescriptor
	aData       []byte
	bData       []byte
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	dir := t.TempDir()

	aData := make([]byte, 100)
	for i := range aData {
		aData[i] = byte(i * 7)
	}
	lit := []byte("ABCDEFGHIJKLMNOP")
	bData := make([]byte, 50)
	for i := range bData {
		bData[i] = lit[i%len(lit)]
	}
	stream := lzStream(literal(lit...), backref(34, 16))
	require.Len(t, stream, 20)

	archive := bytes.Repeat([]byte{0xEE}, 2*BlockSize)
	copy(archive, aData)
	copy(archive[2*BlockSize-len(stream):], stream)

	f := &fixture{
		dir:         dir,
		archivePath: filepath.Join(dir, "TEST.DAT"),
		indexPath:   filepath.Join(dir, "main.elf"),
		aData:       aData,
		bData:       bData,
		containers: []ContainerDescriptor{
			{Name: "A", SectorOffset: 0, SectorSize: 1, FileIndexStart: 0, FileIndexEnd: 1, RecordOffset: 40},
			{
				Name: "B", SectorOffset: 1, SectorSize: 1, FileIndexStart: 1, FileIndexEnd: 2,
				Compression: CompressionLZ, CompressedSize: 20, UncompressedSize: 50, RecordOffset: 76,
			},
		},
		files: []FileDescriptor{
			{Name: "a.bin", Offset: 0, Size: 100, SectorOffset: 0, SectorSize: 1, RecordOffset: 0},
			{Name: "b.bin", Offset: 0, Size: 50, SectorOffset: 1, SectorSize: 1, RecordOffset: 20},
		},
	}
	require.NoError(t, os.WriteFile(f.archivePath, archive, 0644))
	f.writeIndex(t, int64(len(archive)))
	return f
}

// writeIndex encodes the fixture's descriptors into a fresh index file.
func (f *fixture) writeIndex(t testing.TB, archiveLength int64) {
	t.Helper()
	index, err := os.Create(f.indexPath)
	require.NoError(t, err)
	defer index.Close()
	require.NoError(t, index.Truncate(testIndexSize))

	layout := testLayout()
	batch := &recordBatch{order: layout.Order}
	for i := range f.files {
		require.NoError(t, layout.fileRecord(batch, &f.files[i]))
	}
	for i := range f.containers {
		require.NoError(t, layout.containerRecord(batch, &f.containers[i]))
	}
	require.NoError(t, batch.put(0, layout.ArchiveLength, uint64(archiveLength)))
	require.NoError(t, batch.commit(index))
}

func (f *fixture) readIndex(t testing.TB) []byte {
	t.Helper()
	data, err := os.ReadFile(f.indexPath)
	require.NoError(t, err)
	require.Len(t, data, testIndexSize)
	return data
}

// stage writes files below dir, creating parents.
func stage(t testing.TB, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
}

func readFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func pattern(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i%251)
	}
	return data
}
