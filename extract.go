// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Extractor writes the files of an archive to disk.
//
// The descriptor slices are borrowed, not copied; the extractor only reads
// them.
type Extractor struct {
	archive    io.ReaderAt
	containers []ContainerDescriptor
	files      []FileDescriptor
	opts       options
}

// NewExtractor returns an extractor over archive described by containers
// and files.
func NewExtractor(archive io.ReaderAt, containers []ContainerDescriptor, files []FileDescriptor, opts ...Option) (*Extractor, error) {
	o := newOptions(opts)
	for _, pattern := range o.include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}
	return &Extractor{
		archive:    archive,
		containers: containers,
		files:      files,
		opts:       o,
	}, nil
}

// Extract writes every selected container to outputRoot/<container>/<file>.
//
// All descriptors are checked before anything is written. The first read or
// write failure aborts the run; files flushed before it stay on disk.
func (e *Extractor) Extract(outputRoot string) (*Report, error) {
	selected := e.selected()
	for _, c := range selected {
		if _, err := c.Files(e.files); err != nil {
			return nil, err
		}
	}

	results := make([][]ExtractedFile, len(selected))
	if e.opts.workers == 1 || len(selected) < 2 {
		for i, c := range selected {
			extracted, err := e.extractContainer(i, len(selected), c, outputRoot)
			if err != nil {
				return nil, err
			}
			results[i] = extracted
		}
	} else {
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(e.opts.workers)
		for i, c := range selected {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				extracted, err := e.extractContainer(i, len(selected), c, outputRoot)
				if err != nil {
					return err
				}
				results[i] = extracted
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	report := &Report{Containers: make([]string, 0, len(selected))}
	for i, c := range selected {
		report.Containers = append(report.Containers, c.Name)
		report.Files = append(report.Files, results[i]...)
	}
	return report, nil
}

// ExtractContainer writes the single container called name.
func (e *Extractor) ExtractContainer(name, outputRoot string) (*Report, error) {
	c, err := findContainer(e.containers, name)
	if err != nil {
		return nil, err
	}
	if _, err := c.Files(e.files); err != nil {
		return nil, err
	}
	extracted, err := e.extractContainer(0, 1, c, outputRoot)
	if err != nil {
		return nil, err
	}
	return &Report{Containers: []string{c.Name}, Files: extracted}, nil
}

// selected returns the containers that pass the include filter, in
// descriptor order.
func (e *Extractor) selected() []*ContainerDescriptor {
	out := make([]*ContainerDescriptor, 0, len(e.containers))
	for i := range e.containers {
		c := &e.containers[i]
		if e.included(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Extractor) included(name string) bool {
	if len(e.opts.include) == 0 {
		return true
	}
	name = normalizeName(name)
	for _, pattern := range e.opts.include {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (e *Extractor) extractContainer(index, total int, c *ContainerDescriptor, outputRoot string) ([]ExtractedFile, error) {
	log := e.opts.logger
	log.Info("extracting container",
		"index", index+1,
		"total", total,
		"container", c.Name,
		"compression", c.Compression.String(),
	)

	owned, err := c.Files(e.files)
	if err != nil {
		return nil, err
	}
	rel, err := localPath(c.Name)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", c.Name, err)
	}
	dir := filepath.Join(outputRoot, rel)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ioError("create container directory", err)
	}

	buf, release, err := readPooled(e.archive, c, e.opts.pool)
	defer release()
	if err != nil {
		return nil, err
	}

	extracted := make([]ExtractedFile, 0, len(owned))
	for i := range owned {
		f := &owned[i]
		name, err := localPath(f.Name)
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", c.Name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, ioError("create file directory", err)
		}

		data := buf[f.Offset:f.End()]
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, ioError(fmt.Sprintf("write %s", path), err)
		}
		log.Debug("wrote file", "container", c.Name, "file", f.Name, "size", f.Size)

		extracted = append(extracted, ExtractedFile{
			Container: c.Name,
			Name:      normalizeName(f.Name),
			Path:      path,
			Size:      f.Size,
			Digest:    xxhash.Sum64(data),
		})
	}
	return extracted, nil
}

// findContainer looks a container up by exact name; slash direction is
// not significant.
func findContainer(containers []ContainerDescriptor, name string) (*ContainerDescriptor, error) {
	want := normalizeName(name)
	for i := range containers {
		if normalizeName(containers[i].Name) == want {
			return &containers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownContainer, name)
}
