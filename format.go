// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DAT format constants
const (
	// BlockSize is the sector size of every supported platform.
	BlockSize = 0x800

	// Magic of standalone compressed files ("Z?." + NUL), big-endian
	lzMagic = 0x5A3F2E00
)

// CompressionKind is the compression tag stored in a container record.
type CompressionKind uint16

const (
	// CompressionNone marks a raw container.
	CompressionNone CompressionKind = 0

	// CompressionLZ marks a container compressed with the custom LZ scheme.
	CompressionLZ CompressionKind = 1

	// CompressionDeflate marks a zlib container. Only seen in Go Vacation (Switch).
	CompressionDeflate CompressionKind = 2
)

func (k CompressionKind) String() string {
	switch k {
	case CompressionNone:
		return "None"
	case CompressionLZ:
		return "LZ"
	case CompressionDeflate:
		return "Deflate"
	default:
		return fmt.Sprintf("CompressionKind(%d)", uint16(k))
	}
}

// ContainerDescriptor describes one packed unit of an archive.
type ContainerDescriptor struct {
	// Name is the logical path of the container. Extraction uses it as the
	// output subdirectory and repacking matches staging folders against it.
	Name string

	SectorOffset uint32
	SectorSize   uint32

	// FileIndexStart and FileIndexEnd are a half-open range into the
	// archive's file descriptor list.
	FileIndexStart int
	FileIndexEnd   int

	Compression      CompressionKind
	CompressedSize   uint32
	UncompressedSize uint32
	PaddingSize      uint32

	// RecordOffset is the offset of this descriptor's record inside the
	// index stream.
	RecordOffset int64
}

// Offset returns the byte offset of the container in the archive.
func (c *ContainerDescriptor) Offset() int64 {
	return int64(c.SectorOffset) * BlockSize
}

// End returns the byte offset just past the container's last sector.
func (c *ContainerDescriptor) End() int64 {
	return (int64(c.SectorOffset) + int64(c.SectorSize)) * BlockSize
}

// DataOffset returns the offset at which the container's payload starts.
//
// Compressed payloads are padded at the front, not the back, so that they
// end on a sector boundary. The padding is BlockSize - CompressedSize%BlockSize
// and is applied even when CompressedSize is already aligned, in which case
// a whole sector is skipped.
func (c *ContainerDescriptor) DataOffset() int64 {
	if c.Compression == CompressionNone {
		return c.Offset()
	}
	return c.Offset() + BlockSize - int64(c.CompressedSize%BlockSize)
}

// ContentSize returns the size of the container once decompressed. Raw
// containers are their whole sector footprint.
func (c *ContainerDescriptor) ContentSize() int64 {
	if c.Compression == CompressionNone {
		return int64(c.SectorSize) * BlockSize
	}
	return int64(c.UncompressedSize)
}

// Validate checks the descriptor against a file table of fileCount entries.
func (c *ContainerDescriptor) Validate(fileCount int) error {
	switch c.Compression {
	case CompressionNone, CompressionLZ, CompressionDeflate:
	default:
		return fmt.Errorf("container %s: %w: compression tag %d", c.Name, ErrMalformedHeader, uint16(c.Compression))
	}
	if c.FileIndexStart < 0 || c.FileIndexEnd < c.FileIndexStart {
		return fmt.Errorf("container %s: %w: file range [%d, %d)", c.Name, ErrInvalidDescriptor, c.FileIndexStart, c.FileIndexEnd)
	}
	if c.FileIndexEnd > fileCount {
		return fmt.Errorf("container %s: %w: file range [%d, %d) exceeds %d files",
			c.Name, ErrInvalidDescriptor, c.FileIndexStart, c.FileIndexEnd, fileCount)
	}
	return nil
}

// Files returns the container's files as a subslice of files. The result
// aliases files, so updates through it are visible to the caller.
func (c *ContainerDescriptor) Files(files []FileDescriptor) ([]FileDescriptor, error) {
	if err := c.Validate(len(files)); err != nil {
		return nil, err
	}
	owned := files[c.FileIndexStart:c.FileIndexEnd]
	size := uint64(c.ContentSize())
	for i := range owned {
		if owned[i].End() > size {
			return nil, fmt.Errorf("container %s: %w: file %s [%d, %d) outside %d bytes",
				c.Name, ErrInvalidDescriptor, owned[i].Name, owned[i].Offset, owned[i].End(), size)
		}
	}
	return owned, nil
}

func (c *ContainerDescriptor) String() string {
	return fmt.Sprintf("%s | SectorOffset: %08X | SectorSize: %08X | Compression: %s | ZSize: %08X | Size: %08X",
		c.Name, c.SectorOffset, c.SectorSize, c.Compression, c.CompressedSize, c.UncompressedSize)
}

// FileDescriptor describes one logical file inside a container.
type FileDescriptor struct {
	// Name is the path of the file relative to its container and may
	// contain separators.
	Name string

	// Offset and Size locate the file in the decompressed container.
	Offset uint32
	Size   uint32

	// SectorOffset and SectorSize are the absolute placement of the file in
	// the archive, when the index records it.
	SectorOffset uint32
	SectorSize   uint32

	RecordOffset int64
}

// End returns the offset just past the file in its container.
func (f *FileDescriptor) End() uint64 {
	return uint64(f.Offset) + uint64(f.Size)
}

func (f *FileDescriptor) String() string {
	return fmt.Sprintf("%s | ContainerOffset: %08X | Size: %08X", f.Name, f.Offset, f.Size)
}

// ArchiveEnd returns the logical end of the archive: the highest sector
// end of any container, in bytes.
func ArchiveEnd(containers []ContainerDescriptor) int64 {
	var end int64
	for i := range containers {
		if e := containers[i].End(); e > end {
			end = e
		}
	}
	return end
}

// normalizeName converts a descriptor name to a slash-separated path.
// Names are matched exactly otherwise; DAT names are case sensitive.
func normalizeName(name string) string {
	normalized := strings.ReplaceAll(name, "\\", "/")
	for strings.Contains(normalized, "//") {
		normalized = strings.ReplaceAll(normalized, "//", "/")
	}
	return normalized
}

// localPath turns a descriptor name into a path below the output root,
// refusing names that would escape it.
func localPath(name string) (string, error) {
	p := filepath.FromSlash(normalizeName(name))
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("%w: name %q is not a local path", ErrInvalidDescriptor, name)
	}
	return p, nil
}

// lzHeader is the fixed header of a standalone compressed file.
type lzHeader struct {
	Magic            uint32
	SkipLength       uint32 // Extra bytes between the header and the stream
	CompressedSize   uint32
	UncompressedSize uint32
	Reserved         [16]byte
}

// readLZHeader reads the big-endian standalone header from r.
func readLZHeader(r io.Reader) (*lzHeader, error) {
	h := &lzHeader{}
	if err := binary.Read(r, binary.BigEndian, h); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrMalformedHeader, err)
	}
	if h.Magic != lzMagic {
		return nil, fmt.Errorf("%w: invalid magic 0x%08X", ErrMalformedHeader, h.Magic)
	}
	return h, nil
}
