// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is returned for a bad magic number or an unknown compression tag.
	ErrMalformedHeader = errors.New("rrdat: malformed header")

	// ErrCodecFailure is returned when a compressed stream does not decode to
	// exactly the declared size, or does not consume exactly its declared input.
	ErrCodecFailure = errors.New("rrdat: codec failure")

	// ErrDescriptorMismatch is returned when a staging folder does not hold
	// exactly the files of the container it replaces.
	ErrDescriptorMismatch = errors.New("rrdat: descriptor mismatch")

	// ErrUnknownContainer is returned when no container has the requested name.
	ErrUnknownContainer = errors.New("rrdat: unknown container")

	// ErrInvalidDescriptor is returned when a descriptor is inconsistent with
	// the archive, the file table, or the record layout.
	ErrInvalidDescriptor = errors.New("rrdat: invalid descriptor")

	// ErrManifestMismatch is returned when an extracted tree no longer matches its manifest.
	ErrManifestMismatch = errors.New("rrdat: manifest mismatch")

	// ErrIO wraps failures of the underlying archive, index or output files.
	ErrIO = errors.New("rrdat: i/o failure")
)

// ioError tags err as an I/O failure while keeping it matchable.
func ioError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
