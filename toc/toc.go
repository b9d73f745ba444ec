// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package toc locates the container and file tables of DAT archives inside
// game executables and side files.
package toc

import (
	"errors"
	"path"
	"strings"

	"github.com/suprsokr/go-rrdat"
)

var (
	// ErrUnknownPreset is returned when no preset matches a platform and game code.
	ErrUnknownPreset = errors.New("toc: unknown preset")

	// ErrPatchUnsupported is returned by Records when the location of a
	// record the patch engine must rewrite is not known.
	ErrPatchUnsupported = errors.New("toc: patching not supported")
)

// Locator produces the descriptor lists of one or more archives.
type Locator interface {
	// Read parses the tables. It must be called before the accessors.
	Read() error

	// Containers returns the container descriptors of archive, given as a
	// path or an archive key. The result is nil for an unknown archive.
	Containers(archive string) []rrdat.ContainerDescriptor

	// Files returns the flat file descriptor list of archive.
	Files(archive string) []rrdat.FileDescriptor
}

// Patchable is a Locator that can also describe its records for in-place
// rewrites.
type Patchable interface {
	Locator
	Records(archive string) (rrdat.RecordLayout, error)
}

// ArchiveKey returns the key tables are registered under: the upper-cased
// base name without extension, so "/games/rr6/rrm2.dat" is "RRM2".
func ArchiveKey(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.ToUpper(base)
}
