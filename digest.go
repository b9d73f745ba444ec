// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ExtractedFile records one file written by an extraction.
type ExtractedFile struct {
	Container string
	Name      string // slash separated, relative to the container directory
	Path      string // on disk
	Size      uint32
	Digest    uint64 // xxhash64 of the content
}

// Report summarizes an extraction.
type Report struct {
	Containers []string
	Files      []ExtractedFile
}

// WriteManifest writes one line per extracted file:
// digest, size, container and file name separated by tabs.
func (r *Report) WriteManifest(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, f := range r.Files {
		if _, err := fmt.Fprintf(bw, "%016x\t%d\t%s\t%s\n", f.Digest, f.Size, normalizeName(f.Container), f.Name); err != nil {
			return ioError("write manifest", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return ioError("write manifest", err)
	}
	return nil
}

// VerifyManifest checks the tree under root against a manifest written by
// WriteManifest. Every differing or missing file is reported, joined, and
// each entry matches ErrManifestMismatch.
func VerifyManifest(r io.Reader, root string) error {
	var errs []error
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}

		fields := strings.SplitN(text, "\t", 4)
		if len(fields) != 4 {
			return fmt.Errorf("%w: manifest line %d has %d fields", ErrMalformedHeader, line, len(fields))
		}
		digest, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			return fmt.Errorf("%w: manifest line %d digest: %w", ErrMalformedHeader, line, err)
		}
		size, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("%w: manifest line %d size: %w", ErrMalformedHeader, line, err)
		}

		rel, err := localPath(fields[2] + "/" + fields[3])
		if err != nil {
			return fmt.Errorf("manifest line %d: %w", line, err)
		}
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s/%s: %w", ErrManifestMismatch, fields[2], fields[3], err))
			continue
		}
		if uint64(len(data)) != size {
			errs = append(errs, fmt.Errorf("%w: %s/%s is %d bytes, want %d", ErrManifestMismatch, fields[2], fields[3], len(data), size))
			continue
		}
		if got := xxhash.Sum64(data); got != digest {
			errs = append(errs, fmt.Errorf("%w: %s/%s digest %016x, want %016x", ErrManifestMismatch, fields[2], fields[3], got, digest))
		}
	}
	if err := scanner.Err(); err != nil {
		return ioError("read manifest", err)
	}
	return errors.Join(errs...)
}
