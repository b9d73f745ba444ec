// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Field locates one integer inside a binary record. A zero Width marks a
// field the record does not carry; writes to it are skipped.
type Field struct {
	Offset int64
	Width  int
}

// Present reports whether the record carries the field.
func (f Field) Present() bool {
	return f.Width != 0
}

// Read decodes the field from record using order.
func (f Field) Read(order binary.ByteOrder, record []byte) (uint64, error) {
	if !f.Present() {
		return 0, nil
	}
	if f.Offset < 0 || f.Offset+int64(f.Width) > int64(len(record)) {
		return 0, fmt.Errorf("%w: field at %d width %d outside %d byte record", ErrInvalidDescriptor, f.Offset, f.Width, len(record))
	}
	b := record[f.Offset : f.Offset+int64(f.Width)]
	switch f.Width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(order.Uint16(b)), nil
	case 4:
		return uint64(order.Uint32(b)), nil
	case 8:
		return order.Uint64(b), nil
	default:
		return 0, fmt.Errorf("%w: field width %d", ErrInvalidDescriptor, f.Width)
	}
}

// encode renders v in the field's width, failing if it does not fit.
func (f Field) encode(order binary.ByteOrder, v uint64) ([]byte, error) {
	b := make([]byte, f.Width)
	switch f.Width {
	case 1:
		if v > 0xFF {
			return nil, fmt.Errorf("%w: value 0x%X overflows 1 byte field", ErrInvalidDescriptor, v)
		}
		b[0] = byte(v)
	case 2:
		if v > 0xFFFF {
			return nil, fmt.Errorf("%w: value 0x%X overflows 2 byte field", ErrInvalidDescriptor, v)
		}
		order.PutUint16(b, uint16(v))
	case 4:
		if v > 0xFFFFFFFF {
			return nil, fmt.Errorf("%w: value 0x%X overflows 4 byte field", ErrInvalidDescriptor, v)
		}
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return nil, fmt.Errorf("%w: field width %d", ErrInvalidDescriptor, f.Width)
	}
	return b, nil
}

// RecordLayout describes where the mutable fields of the index records
// live, so the patch engine can rewrite them in place.
//
// File and container field offsets are relative to each descriptor's
// RecordOffset. ArchiveLength is an absolute offset in the index stream.
type RecordLayout struct {
	Order binary.ByteOrder

	FileSectorOffset Field
	FileSectorSize   Field
	FileSize         Field
	FileOffset       Field

	ContainerSectorOffset     Field
	ContainerSectorSize       Field
	ContainerCompression      Field
	ContainerCompressedSize   Field
	ContainerUncompressedSize Field

	ArchiveLength Field
}

// Validate checks widths and that the fields the patch engine cannot do
// without are present.
func (l *RecordLayout) Validate() error {
	if l.Order == nil {
		return fmt.Errorf("%w: record layout has no byte order", ErrInvalidDescriptor)
	}
	fields := []Field{
		l.FileSectorOffset, l.FileSectorSize, l.FileSize, l.FileOffset,
		l.ContainerSectorOffset, l.ContainerSectorSize, l.ContainerCompression,
		l.ContainerCompressedSize, l.ContainerUncompressedSize, l.ArchiveLength,
	}
	for _, f := range fields {
		switch f.Width {
		case 0, 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: field width %d", ErrInvalidDescriptor, f.Width)
		}
		if f.Offset < 0 {
			return fmt.Errorf("%w: negative field offset %d", ErrInvalidDescriptor, f.Offset)
		}
	}
	required := map[string]Field{
		"file size":               l.FileSize,
		"file offset":             l.FileOffset,
		"container sector offset": l.ContainerSectorOffset,
		"container sector size":   l.ContainerSectorSize,
		"container compression":   l.ContainerCompression,
		"total archive length":    l.ArchiveLength,
	}
	for name, f := range required {
		if !f.Present() {
			return fmt.Errorf("%w: record layout lacks %s field", ErrInvalidDescriptor, name)
		}
	}
	return nil
}

// recordWrite is one pending in-place index update.
type recordWrite struct {
	offset int64
	data   []byte
}

// recordBatch collects encoded writes so that every value is checked
// against its field width before anything touches the index.
type recordBatch struct {
	order  binary.ByteOrder
	writes []recordWrite
}

func (b *recordBatch) put(base int64, f Field, v uint64) error {
	if !f.Present() {
		return nil
	}
	data, err := f.encode(b.order, v)
	if err != nil {
		return err
	}
	b.writes = append(b.writes, recordWrite{offset: base + f.Offset, data: data})
	return nil
}

func (b *recordBatch) commit(w io.WriterAt) error {
	for _, rw := range b.writes {
		if _, err := w.WriteAt(rw.data, rw.offset); err != nil {
			return ioError(fmt.Sprintf("write index record at 0x%X", rw.offset), err)
		}
	}
	return nil
}

// fileRecord queues the rewrite of a file descriptor's record.
func (l *RecordLayout) fileRecord(b *recordBatch, f *FileDescriptor) error {
	if err := b.put(f.RecordOffset, l.FileSectorOffset, uint64(f.SectorOffset)); err != nil {
		return fmt.Errorf("file %s sector offset: %w", f.Name, err)
	}
	if err := b.put(f.RecordOffset, l.FileSectorSize, uint64(f.SectorSize)); err != nil {
		return fmt.Errorf("file %s sector size: %w", f.Name, err)
	}
	if err := b.put(f.RecordOffset, l.FileSize, uint64(f.Size)); err != nil {
		return fmt.Errorf("file %s size: %w", f.Name, err)
	}
	if err := b.put(f.RecordOffset, l.FileOffset, uint64(f.Offset)); err != nil {
		return fmt.Errorf("file %s offset: %w", f.Name, err)
	}
	return nil
}

// containerRecord queues the rewrite of a container descriptor's record.
func (l *RecordLayout) containerRecord(b *recordBatch, c *ContainerDescriptor) error {
	if err := b.put(c.RecordOffset, l.ContainerSectorOffset, uint64(c.SectorOffset)); err != nil {
		return fmt.Errorf("container %s sector offset: %w", c.Name, err)
	}
	if err := b.put(c.RecordOffset, l.ContainerSectorSize, uint64(c.SectorSize)); err != nil {
		return fmt.Errorf("container %s sector size: %w", c.Name, err)
	}
	if err := b.put(c.RecordOffset, l.ContainerCompression, uint64(c.Compression)); err != nil {
		return fmt.Errorf("container %s compression: %w", c.Name, err)
	}
	if err := b.put(c.RecordOffset, l.ContainerCompressedSize, uint64(c.CompressedSize)); err != nil {
		return fmt.Errorf("container %s compressed size: %w", c.Name, err)
	}
	if err := b.put(c.RecordOffset, l.ContainerUncompressedSize, uint64(c.UncompressedSize)); err != nil {
		return fmt.Errorf("container %s uncompressed size: %w", c.Name, err)
	}
	return nil
}
