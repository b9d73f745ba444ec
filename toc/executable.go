// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/suprsokr/go-rrdat"
)

const maxNameLength = 1024

// ContainerRecord is the binary layout of one container record.
type ContainerRecord struct {
	Size int64 // stride between records

	Name             rrdat.Field // pointer to a NUL-terminated name
	SectorOffset     rrdat.Field
	SectorSize       rrdat.Field
	IndexStart       rrdat.Field
	IndexEnd         rrdat.Field
	Compression      rrdat.Field
	CompressedSize   rrdat.Field
	UncompressedSize rrdat.Field
	PaddingSize      rrdat.Field
}

// FileRecord is the binary layout of one file record.
type FileRecord struct {
	Size int64

	Name         rrdat.Field
	SectorOffset rrdat.Field
	SectorSize   rrdat.Field
	FileSize     rrdat.Field
	Offset       rrdat.Field
}

// Layout describes how a platform stores its tables.
type Layout struct {
	Order binary.ByteOrder

	// NameBias converts a name pointer to a file offset: offset = pointer - NameBias.
	NameBias int64

	// ContainersFirst is set when each container table precedes its file table.
	ContainersFirst bool

	// TableAlign, when non-zero, aligns the start of every table that
	// follows another one.
	TableAlign int64

	// BooleanCompression is set when the compression field is a flag:
	// any non-zero value means LZ.
	BooleanCompression bool

	Container ContainerRecord
	File      FileRecord
}

// Table locates the descriptor tables of one archive.
type Table struct {
	// Archive is the archive key, see ArchiveKey. An empty key matches
	// any archive.
	Archive string

	// Offset is the file offset of the first table. When Follows is set
	// the tables start right after the previous archive's tables instead.
	Offset  int64
	Follows bool

	ContainerCount int
	FileCount      int

	// ArchiveLength is the absolute location of the total archive length
	// field, when known.
	ArchiveLength rrdat.Field
}

type tables struct {
	containers []rrdat.ContainerDescriptor
	files      []rrdat.FileDescriptor
}

// Executable reads descriptor tables out of an executable image using a preset.
type Executable struct {
	r      io.ReaderAt
	preset *Preset
	read   map[string]*tables
}

// NewExecutable returns a locator over the executable image r.
func NewExecutable(r io.ReaderAt, preset *Preset) *Executable {
	return &Executable{r: r, preset: preset}
}

// Preset returns the preset the executable was opened with.
func (e *Executable) Preset() *Preset {
	return e.preset
}

// Read parses every table of the preset.
func (e *Executable) Read() error {
	layout := &e.preset.Layout
	read := make(map[string]*tables, len(e.preset.Tables))

	var pos int64
	for i := range e.preset.Tables {
		t := &e.preset.Tables[i]
		if !t.Follows || i == 0 {
			pos = t.Offset
		}

		var (
			out = &tables{}
			err error
		)
		if layout.ContainersFirst {
			if out.containers, pos, err = e.readContainers(pos, t.ContainerCount); err != nil {
				return err
			}
			pos = align(pos, layout.TableAlign)
			if out.files, pos, err = e.readFiles(pos, t.FileCount); err != nil {
				return err
			}
		} else {
			if out.files, pos, err = e.readFiles(pos, t.FileCount); err != nil {
				return err
			}
			pos = align(pos, layout.TableAlign)
			if out.containers, pos, err = e.readContainers(pos, t.ContainerCount); err != nil {
				return err
			}
		}
		pos = align(pos, layout.TableAlign)
		read[t.Archive] = out
	}

	e.read = read
	return nil
}

// Containers implements Locator.
func (e *Executable) Containers(archive string) []rrdat.ContainerDescriptor {
	if t := e.lookup(archive); t != nil {
		return t.containers
	}
	return nil
}

// Files implements Locator.
func (e *Executable) Files(archive string) []rrdat.FileDescriptor {
	if t := e.lookup(archive); t != nil {
		return t.files
	}
	return nil
}

// Records returns the record layout the patch engine needs for archive.
func (e *Executable) Records(archive string) (rrdat.RecordLayout, error) {
	t := e.table(archive)
	if t == nil {
		return rrdat.RecordLayout{}, fmt.Errorf("%w: no table for archive %s", rrdat.ErrUnknownContainer, archive)
	}
	if !t.ArchiveLength.Present() {
		return rrdat.RecordLayout{}, fmt.Errorf("%w: %s %s has no known archive length field",
			ErrPatchUnsupported, e.preset.Platform, e.preset.Game)
	}

	l := &e.preset.Layout
	records := rrdat.RecordLayout{
		Order:                     l.Order,
		FileSectorOffset:          l.File.SectorOffset,
		FileSectorSize:            l.File.SectorSize,
		FileSize:                  l.File.FileSize,
		FileOffset:                l.File.Offset,
		ContainerSectorOffset:     l.Container.SectorOffset,
		ContainerSectorSize:       l.Container.SectorSize,
		ContainerCompression:      l.Container.Compression,
		ContainerCompressedSize:   l.Container.CompressedSize,
		ContainerUncompressedSize: l.Container.UncompressedSize,
		ArchiveLength:             t.ArchiveLength,
	}
	if err := records.Validate(); err != nil {
		return rrdat.RecordLayout{}, err
	}
	return records, nil
}

func (e *Executable) table(archive string) *Table {
	key := ArchiveKey(archive)
	for i := range e.preset.Tables {
		t := &e.preset.Tables[i]
		if t.Archive == "" || t.Archive == key {
			return t
		}
	}
	return nil
}

func (e *Executable) lookup(archive string) *tables {
	t := e.table(archive)
	if t == nil || e.read == nil {
		return nil
	}
	return e.read[t.Archive]
}

func (e *Executable) readContainers(pos int64, count int) ([]rrdat.ContainerDescriptor, int64, error) {
	l := &e.preset.Layout
	rec := &l.Container
	buf := make([]byte, rec.Size)
	out := make([]rrdat.ContainerDescriptor, 0, count)

	for i := 0; i < count; i++ {
		if err := e.readRecord(buf, pos); err != nil {
			return nil, 0, fmt.Errorf("container record %d: %w", i, err)
		}
		var fields [8]uint64
		for j, f := range []rrdat.Field{
			rec.SectorOffset, rec.SectorSize, rec.IndexStart, rec.IndexEnd,
			rec.Compression, rec.CompressedSize, rec.UncompressedSize, rec.PaddingSize,
		} {
			v, err := f.Read(l.Order, buf)
			if err != nil {
				return nil, 0, fmt.Errorf("container record %d: %w", i, err)
			}
			fields[j] = v
		}
		name, err := e.readName(buf, &rec.Name)
		if err != nil {
			return nil, 0, fmt.Errorf("container record %d: %w", i, err)
		}

		compression := rrdat.CompressionKind(fields[4])
		if l.BooleanCompression && fields[4] != 0 {
			compression = rrdat.CompressionLZ
		}
		out = append(out, rrdat.ContainerDescriptor{
			Name:             name,
			SectorOffset:     uint32(fields[0]),
			SectorSize:       uint32(fields[1]),
			FileIndexStart:   int(fields[2]),
			FileIndexEnd:     int(fields[3]),
			Compression:      compression,
			CompressedSize:   uint32(fields[5]),
			UncompressedSize: uint32(fields[6]),
			PaddingSize:      uint32(fields[7]),
			RecordOffset:     pos,
		})
		pos += rec.Size
	}
	return out, pos, nil
}

func (e *Executable) readFiles(pos int64, count int) ([]rrdat.FileDescriptor, int64, error) {
	l := &e.preset.Layout
	rec := &l.File
	buf := make([]byte, rec.Size)
	out := make([]rrdat.FileDescriptor, 0, count)

	for i := 0; i < count; i++ {
		if err := e.readRecord(buf, pos); err != nil {
			return nil, 0, fmt.Errorf("file record %d: %w", i, err)
		}
		var fields [4]uint64
		for j, f := range []rrdat.Field{rec.SectorOffset, rec.SectorSize, rec.FileSize, rec.Offset} {
			v, err := f.Read(l.Order, buf)
			if err != nil {
				return nil, 0, fmt.Errorf("file record %d: %w", i, err)
			}
			fields[j] = v
		}
		name, err := e.readName(buf, &rec.Name)
		if err != nil {
			return nil, 0, fmt.Errorf("file record %d: %w", i, err)
		}

		out = append(out, rrdat.FileDescriptor{
			Name:         name,
			SectorOffset: uint32(fields[0]),
			SectorSize:   uint32(fields[1]),
			Size:         uint32(fields[2]),
			Offset:       uint32(fields[3]),
			RecordOffset: pos,
		})
		pos += rec.Size
	}
	return out, pos, nil
}

func (e *Executable) readRecord(buf []byte, pos int64) error {
	n, err := e.r.ReadAt(buf, pos)
	if n == len(buf) {
		return nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: read at 0x%X: %w", rrdat.ErrIO, pos, err)
}

// readName follows the name pointer of record to a NUL-terminated string.
func (e *Executable) readName(record []byte, f *rrdat.Field) (string, error) {
	ptr, err := f.Read(e.preset.Layout.Order, record)
	if err != nil {
		return "", err
	}
	off := int64(ptr) - e.preset.Layout.NameBias
	if off < 0 {
		return "", fmt.Errorf("%w: name pointer 0x%X is before the image", rrdat.ErrInvalidDescriptor, ptr)
	}
	return readCString(e.r, off)
}

func readCString(r io.ReaderAt, off int64) (string, error) {
	var (
		name  []byte
		chunk [64]byte
	)
	for len(name) < maxNameLength {
		n, err := r.ReadAt(chunk[:], off)
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			return string(append(name, chunk[:i]...)), nil
		}
		name = append(name, chunk[:n]...)
		off += int64(n)
		if err != nil {
			return "", fmt.Errorf("%w: unterminated name at 0x%X: %w", rrdat.ErrInvalidDescriptor, off, err)
		}
	}
	return "", fmt.Errorf("%w: name at 0x%X longer than %d bytes", rrdat.ErrInvalidDescriptor, off, maxNameLength)
}

func align(pos, to int64) int64 {
	if to <= 1 {
		return pos
	}
	return (pos + to - 1) / to * to
}
