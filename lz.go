// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"bytes"
	"fmt"
	"io"
)

// DecodeLZ reads exactly compressedSize bytes from r and decodes them into
// dst. It succeeds only if the stream is consumed exactly and dst is filled
// exactly.
func DecodeLZ(r io.Reader, compressedSize uint32, dst []byte) error {
	src, err := readPayload(r, compressedSize, "lz")
	if err != nil {
		return err
	}
	return decodeLZ(src, dst)
}

// maxLZExpansion bounds the output of a stream: a two byte back-reference
// yields at most 34 bytes.
const maxLZExpansion = 17

// readPayload reads exactly size bytes from r. The buffer grows with the
// data actually read, so a bogus size cannot force a large allocation.
func readPayload(r io.Reader, size uint32, kind string) ([]byte, error) {
	src, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("%w: read %d byte %s stream: %w", ErrCodecFailure, size, kind, err)
	}
	if len(src) != int(size) {
		return nil, fmt.Errorf("%w: read %d byte %s stream: %w after %d bytes", ErrCodecFailure, size, kind, io.ErrUnexpectedEOF, len(src))
	}
	return src, nil
}

// decodeLZ decodes the control-word stream in src into dst.
//
// Each step starts with two bytes b1, b2. When b2 is 0xFF the step is a
// literal run of b1+1 bytes copied from src. Otherwise control = b2<<8|b1
// is a back-reference of (b1&0x1F)+3 bytes at distance (control>>5)+1.
func decodeLZ(src, dst []byte) error {
	in, out := 0, 0
	for in < len(src) && out < len(dst) {
		if in+2 > len(src) {
			return fmt.Errorf("%w: truncated control word at input offset %d", ErrCodecFailure, in)
		}
		b1, b2 := src[in], src[in+1]
		in += 2
		control := uint16(b2)<<8 | uint16(b1)

		if control < 0xFF00 {
			length := int(b1&0x1F) + 3
			distance := int(control>>5) + 1
			if distance > out {
				return fmt.Errorf("%w: back-reference distance %d before start of output at %d", ErrCodecFailure, distance, out)
			}
			if out+length > len(dst) {
				return fmt.Errorf("%w: back-reference of %d bytes overruns output at %d", ErrCodecFailure, length, out)
			}
			// Byte by byte: overlapping references repeat the window.
			for i := 0; i < length; i++ {
				dst[out+i] = dst[out-distance+i]
			}
			out += length
			continue
		}

		length := int(b1) + 1
		if out+length > len(dst) {
			return fmt.Errorf("%w: literal run of %d bytes overruns output at %d", ErrCodecFailure, length, out)
		}
		if in+length > len(src) {
			return fmt.Errorf("%w: literal run of %d bytes truncated at input offset %d", ErrCodecFailure, length, in)
		}
		copy(dst[out:], src[in:in+length])
		in += length
		out += length
	}

	if out < len(dst) {
		return fmt.Errorf("%w: stream ended after %d of %d bytes", ErrCodecFailure, out, len(dst))
	}
	if in < len(src) {
		return fmt.Errorf("%w: output full with %d input bytes left", ErrCodecFailure, len(src)-in)
	}
	return nil
}

// DecodeLZStream decodes a standalone compressed file: a 32 byte header
// starting with the 0x5A3F2E00 magic, a run of skipped bytes, then the
// control-word stream.
func DecodeLZStream(r io.Reader) ([]byte, error) {
	h, err := readLZHeader(r)
	if err != nil {
		return nil, err
	}
	if h.SkipLength > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(h.SkipLength)); err != nil {
			return nil, fmt.Errorf("%w: skip %d header bytes: %w", ErrMalformedHeader, h.SkipLength, err)
		}
	}

	src, err := readPayload(r, h.CompressedSize, "lz")
	if err != nil {
		return nil, err
	}
	if uint64(h.UncompressedSize) > maxLZExpansion*uint64(len(src)) {
		return nil, fmt.Errorf("%w: %d byte stream cannot expand to %d bytes", ErrCodecFailure, len(src), h.UncompressedSize)
	}
	dst := make([]byte, h.UncompressedSize)
	if err := decodeLZ(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecodeLZBytes is DecodeLZStream over an in-memory file.
func DecodeLZBytes(data []byte) ([]byte, error) {
	return DecodeLZStream(bytes.NewReader(data))
}
