// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"fmt"
	"io"
)

// ReadContainer returns the decompressed content of c read from archive.
// Raw containers yield their whole sector footprint; compressed containers
// yield exactly UncompressedSize bytes. The returned buffer is owned by the
// caller.
func ReadContainer(archive io.ReaderAt, c *ContainerDescriptor) ([]byte, error) {
	buf := make([]byte, c.ContentSize())
	if err := readContainerInto(archive, c, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readPooled is ReadContainer backed by pool. release must be called once
// the buffer is no longer needed, also on error.
func readPooled(archive io.ReaderAt, c *ContainerDescriptor, pool *BufferPool) ([]byte, func(), error) {
	buf, release := pool.Get(int(c.ContentSize()))
	if err := readContainerInto(archive, c, buf); err != nil {
		return nil, release, err
	}
	return buf, release, nil
}

func readContainerInto(archive io.ReaderAt, c *ContainerDescriptor, buf []byte) error {
	if c.Compression == CompressionNone {
		n, err := archive.ReadAt(buf, c.Offset())
		if n == len(buf) {
			return nil
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return ioError(fmt.Sprintf("read container %s at 0x%X", c.Name, c.Offset()), err)
	}

	section := io.NewSectionReader(archive, c.DataOffset(), int64(c.CompressedSize))
	if err := decompress(c.Compression, section, c.CompressedSize, buf); err != nil {
		return fmt.Errorf("container %s: %w", c.Name, err)
	}
	return nil
}
