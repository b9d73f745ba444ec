// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractScenario(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out")

	archive, err := Open(f.archivePath, f.containers, f.files)
	require.NoError(t, err)
	defer archive.Close()

	report, err := archive.ExtractAll(out)
	require.NoError(t, err)

	assert.Equal(t, f.aData, readFile(t, filepath.Join(out, "A", "a.bin")))
	assert.Equal(t, f.bData, readFile(t, filepath.Join(out, "B", "b.bin")))

	assert.Equal(t, []string{"A", "B"}, report.Containers)
	require.Len(t, report.Files, 2)
	assert.Equal(t, ExtractedFile{
		Container: "A",
		Name:      "a.bin",
		Path:      filepath.Join(out, "A", "a.bin"),
		Size:      100,
		Digest:    xxhash.Sum64(f.aData),
	}, report.Files[0])
	assert.Equal(t, xxhash.Sum64(f.bData), report.Files[1].Digest)
}

func TestExtractIdempotent(t *testing.T) {
	f := newFixture(t)
	archive, err := Open(f.archivePath, f.containers, f.files)
	require.NoError(t, err)
	defer archive.Close()

	first, err := archive.ExtractAll(filepath.Join(f.dir, "one"))
	require.NoError(t, err)
	second, err := archive.ExtractAll(filepath.Join(f.dir, "two"))
	require.NoError(t, err)

	require.Len(t, second.Files, len(first.Files))
	for i := range first.Files {
		assert.Equal(t, first.Files[i].Digest, second.Files[i].Digest)
		assert.Equal(t, readFile(t, first.Files[i].Path), readFile(t, second.Files[i].Path))
	}

	// Extracting over an existing tree rewrites the same bytes.
	again, err := archive.ExtractAll(filepath.Join(f.dir, "one"))
	require.NoError(t, err)
	assert.Equal(t, first.Files, again.Files)
}

func TestExtractNestedNames(t *testing.T) {
	f := newFixture(t)
	f.containers[1].Name = `data\car`
	f.files[1].Name = `body\main.bin`
	out := filepath.Join(f.dir, "out")

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files)
	require.NoError(t, err)
	report, err := ex.Extract(out)
	require.NoError(t, err)

	assert.Equal(t, f.bData, readFile(t, filepath.Join(out, "data", "car", "body", "main.bin")))
	assert.Equal(t, "body/main.bin", report.Files[1].Name)
}

func TestExtractInclude(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out")

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files, WithInclude("B", "C/**"))
	require.NoError(t, err)
	report, err := ex.Extract(out)
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, report.Containers)
	assert.NoDirExists(t, filepath.Join(out, "A"))
	assert.FileExists(t, filepath.Join(out, "B", "b.bin"))
}

func TestExtractBadPattern(t *testing.T) {
	_, err := NewExtractor(bytes.NewReader(nil), nil, nil, WithInclude("[a-"))
	require.ErrorIs(t, err, doublestar.ErrBadPattern)
}

func TestExtractWorkers(t *testing.T) {
	f := newFixture(t)

	// Twelve containers over the same two sectors.
	var containers []ContainerDescriptor
	for i := 0; i < 6; i++ {
		for j, c := range f.containers {
			c.Name = string(rune('a'+i)) + "/" + c.Name
			c.RecordOffset = int64(i*2 + j)
			containers = append(containers, c)
		}
	}

	sequential, err := NewExtractor(openFile(t, f.archivePath), containers, f.files)
	require.NoError(t, err)
	want, err := sequential.Extract(filepath.Join(f.dir, "seq"))
	require.NoError(t, err)

	parallel, err := NewExtractor(openFile(t, f.archivePath), containers, f.files, WithWorkers(4), WithBufferPool(NewBufferPool()))
	require.NoError(t, err)
	got, err := parallel.Extract(filepath.Join(f.dir, "par"))
	require.NoError(t, err)

	assert.Equal(t, want.Containers, got.Containers)
	require.Len(t, got.Files, len(want.Files))
	for i := range want.Files {
		assert.Equal(t, want.Files[i].Container, got.Files[i].Container)
		assert.Equal(t, want.Files[i].Digest, got.Files[i].Digest)
	}
}

func TestExtractAbortsOnCodecFailure(t *testing.T) {
	f := newFixture(t)
	f.containers[1].CompressedSize = 19

	for _, workers := range []int{1, 2} {
		ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files, WithWorkers(workers))
		require.NoError(t, err)
		_, err = ex.Extract(filepath.Join(f.dir, "out"))
		require.ErrorIs(t, err, ErrCodecFailure)
	}
}

func TestExtractRejectsEscapingName(t *testing.T) {
	f := newFixture(t)
	f.files[0].Name = "../../evil.bin"

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files)
	require.NoError(t, err)
	_, err = ex.Extract(filepath.Join(f.dir, "out"))
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.NoFileExists(t, filepath.Join(f.dir, "evil.bin"))
}

func TestExtractValidatesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	f.files[1].Size = 51
	out := filepath.Join(f.dir, "out")

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files)
	require.NoError(t, err)
	_, err = ex.Extract(out)
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.NoDirExists(t, out)
}

func TestExtractTruncatedArchive(t *testing.T) {
	f := newFixture(t)
	f.containers[0].SectorSize = 3
	f.files[0].Size = 100

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers[:1], f.files[:1])
	require.NoError(t, err)
	_, err = ex.Extract(filepath.Join(f.dir, "out"))
	require.ErrorIs(t, err, ErrIO)
}

func TestExtractContainer(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out")

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files)
	require.NoError(t, err)

	report, err := ex.ExtractContainer("B", out)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, report.Containers)
	assert.NoDirExists(t, filepath.Join(out, "A"))

	_, err = ex.ExtractContainer("missing", out)
	require.ErrorIs(t, err, ErrUnknownContainer)
}

func TestExtractLogs(t *testing.T) {
	f := newFixture(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ex, err := NewExtractor(openFile(t, f.archivePath), f.containers, f.files, WithLogger(logger))
	require.NoError(t, err)
	_, err = ex.Extract(filepath.Join(f.dir, "out"))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(logs.String(), "extracting container"))
	assert.Equal(t, 2, strings.Count(logs.String(), "wrote file"))
	assert.Contains(t, logs.String(), "compression=LZ")
}

func TestManifest(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "out")

	archive, err := Open(f.archivePath, f.containers, f.files)
	require.NoError(t, err)
	defer archive.Close()
	report, err := archive.ExtractAll(out)
	require.NoError(t, err)

	var manifest bytes.Buffer
	require.NoError(t, report.WriteManifest(&manifest))
	lines := strings.Split(strings.TrimSpace(manifest.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\t100\tA\ta.bin"), lines[0])

	require.NoError(t, VerifyManifest(bytes.NewReader(manifest.Bytes()), out))

	require.NoError(t, os.WriteFile(filepath.Join(out, "B", "b.bin"), []byte("changed"), 0644))
	require.NoError(t, os.Remove(filepath.Join(out, "A", "a.bin")))
	err = VerifyManifest(bytes.NewReader(manifest.Bytes()), out)
	require.ErrorIs(t, err, ErrManifestMismatch)
	assert.Contains(t, err.Error(), "A/a.bin")
	assert.Contains(t, err.Error(), "B/b.bin")
}

func TestVerifyManifestMalformed(t *testing.T) {
	err := VerifyManifest(strings.NewReader("nothex\t1\tA\ta.bin\n"), t.TempDir())
	require.ErrorIs(t, err, ErrMalformedHeader)

	err = VerifyManifest(strings.NewReader("0000000000000000\t1\n"), t.TempDir())
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func openFile(t testing.TB, path string) *os.File {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return file
}
