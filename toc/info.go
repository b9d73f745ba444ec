// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/suprsokr/go-rrdat"
)

// Info reads the text side file that describes the Ridge Racer (PS Vita)
// archive.
//
// Line one holds the archive size and line two the total uncompressed
// size. Container lines follow up to a blank line:
//
//	name sectorOffset sectorSize indexStart indexEnd compressed zsize size unk
//
// then file lines:
//
//	name sectorOffset sectorSize flag size offset
//
// Malformed lines are logged and skipped.
type Info struct {
	path   string
	logger *slog.Logger

	ArchiveSize      uint64
	UncompressedSize uint64

	containers []rrdat.ContainerDescriptor
	files      []rrdat.FileDescriptor
}

// NewInfo returns a locator reading the info file at path. logger may be nil.
func NewInfo(path string, logger *slog.Logger) *Info {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Info{path: path, logger: logger}
}

// Read implements Locator.
func (i *Info) Read() error {
	f, err := os.Open(i.path)
	if err != nil {
		return fmt.Errorf("open info file: %w: %w", rrdat.ErrIO, err)
	}
	defer f.Close()
	return i.Decode(f)
}

// Decode parses an info file from r.
func (i *Info) Decode(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimRight(scanner.Text(), "\r"), true
	}

	var err error
	text, ok := line()
	if i.ArchiveSize, err = strconv.ParseUint(text, 10, 64); !ok || err != nil {
		return fmt.Errorf("%w: info file has a missing or bad archive size on line 1", rrdat.ErrMalformedHeader)
	}
	text, ok = line()
	if i.UncompressedSize, err = strconv.ParseUint(text, 10, 64); !ok || err != nil {
		return fmt.Errorf("%w: info file has a missing or bad uncompressed size on line 2", rrdat.ErrMalformedHeader)
	}

	i.containers = i.containers[:0]
	for text, ok = line(); ok && text != ""; text, ok = line() {
		c, err := parseInfoContainer(text)
		if err != nil {
			i.logger.Warn("skipping container line", "line", text, "error", err)
			continue
		}
		i.containers = append(i.containers, c)
	}

	i.files = i.files[:0]
	for text, ok = line(); ok && text != ""; text, ok = line() {
		f, err := parseInfoFile(text)
		if err != nil {
			i.logger.Warn("skipping file line", "line", text, "error", err)
			continue
		}
		i.files = append(i.files, f)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read info file: %w: %w", rrdat.ErrIO, err)
	}
	return nil
}

// Containers implements Locator. The info file describes a single archive.
func (i *Info) Containers(string) []rrdat.ContainerDescriptor {
	return i.containers
}

// Files implements Locator.
func (i *Info) Files(string) []rrdat.FileDescriptor {
	return i.files
}

func parseInfoContainer(text string) (rrdat.ContainerDescriptor, error) {
	fields := strings.Split(text, " ")
	if len(fields) != 9 {
		return rrdat.ContainerDescriptor{}, fmt.Errorf("expected 9 fields, got %d", len(fields))
	}
	var v [8]uint64
	for j := range v {
		n, err := strconv.ParseUint(fields[j+1], 10, 32)
		if err != nil {
			return rrdat.ContainerDescriptor{}, fmt.Errorf("field %d: %w", j+2, err)
		}
		v[j] = n
	}

	if v[4] > math.MaxUint16 {
		return rrdat.ContainerDescriptor{}, fmt.Errorf("compression tag %d out of range", v[4])
	}
	return rrdat.ContainerDescriptor{
		Name:             fields[0],
		SectorOffset:     uint32(v[0]),
		SectorSize:       uint32(v[1]),
		FileIndexStart:   int(v[2]),
		FileIndexEnd:     int(v[3]),
		Compression:      rrdat.CompressionKind(v[4]),
		CompressedSize:   uint32(v[5]),
		UncompressedSize: uint32(v[6]),
		RecordOffset:     -1,
	}, nil
}

func parseInfoFile(text string) (rrdat.FileDescriptor, error) {
	fields := strings.Split(text, " ")
	if len(fields) != 6 {
		return rrdat.FileDescriptor{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	var v [5]uint64
	for j := range v {
		n, err := strconv.ParseUint(fields[j+1], 10, 32)
		if err != nil {
			return rrdat.FileDescriptor{}, fmt.Errorf("field %d: %w", j+2, err)
		}
		v[j] = n
	}
	return rrdat.FileDescriptor{
		Name:         fields[0],
		SectorOffset: uint32(v[0]),
		SectorSize:   uint32(v[1]),
		Size:         uint32(v[3]),
		Offset:       uint32(v[4]),
		RecordOffset: -1,
	}, nil
}
