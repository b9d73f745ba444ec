// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// decompress reads one compressed payload of compressedSize bytes from r
// into dst, choosing the decoder by kind.
func decompress(kind CompressionKind, r io.Reader, compressedSize uint32, dst []byte) error {
	switch kind {
	case CompressionLZ:
		return DecodeLZ(r, compressedSize, dst)
	case CompressionDeflate:
		return Inflate(r, compressedSize, dst)
	default:
		return fmt.Errorf("%w: no decoder for compression %s", ErrMalformedHeader, kind)
	}
}

// Inflate reads compressedSize bytes from r and inflates them into dst,
// which must come out exactly full. The stream is read as zlib first and
// as raw deflate when the zlib reading fails.
func Inflate(r io.Reader, compressedSize uint32, dst []byte) error {
	src, err := readPayload(r, compressedSize, "deflate")
	if err != nil {
		return err
	}

	zerr := inflateZlib(src, dst)
	if zerr == nil {
		return nil
	}
	if err := inflateWith(flate.NewReader(bytes.NewReader(src)), dst); err == nil {
		return nil
	}
	return zerr
}

func inflateZlib(src, dst []byte) error {
	zr, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("%w: create zlib reader: %w", ErrCodecFailure, err)
	}
	return inflateWith(zr, dst)
}

// inflateWith fills dst from zr and checks that the stream ends there.
func inflateWith(zr io.ReadCloser, dst []byte) error {
	defer zr.Close()

	if _, err := io.ReadFull(zr, dst); err != nil {
		return fmt.Errorf("%w: inflate %d bytes: %w", ErrCodecFailure, len(dst), err)
	}

	// The stream must end here; this also runs the zlib checksum.
	var extra [1]byte
	n, err := zr.Read(extra[:])
	if n > 0 {
		return fmt.Errorf("%w: deflate stream longer than %d bytes", ErrCodecFailure, len(dst))
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: finish deflate stream: %w", ErrCodecFailure, err)
	}
	return nil
}
