// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"fmt"
	"os"
)

// Archive is a DAT file opened for reading together with its descriptors.
type Archive struct {
	file       *os.File
	path       string
	containers []ContainerDescriptor
	files      []FileDescriptor
	extractor  *Extractor
}

// Open opens the DAT file at path. The descriptors usually come from a
// toc.Locator and are borrowed for the lifetime of the archive.
func Open(path string, containers []ContainerDescriptor, files []FileDescriptor, opts ...Option) (*Archive, error) {
	for i := range containers {
		if err := containers[i].Validate(len(files)); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ioError("open archive", err)
	}

	extractor, err := NewExtractor(file, containers, files, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Archive{
		file:       file,
		path:       path,
		containers: containers,
		files:      files,
		extractor:  extractor,
	}, nil
}

// Close closes the archive file.
func (a *Archive) Close() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Path returns the path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Containers returns the container descriptors.
func (a *Archive) Containers() []ContainerDescriptor {
	return a.containers
}

// Files returns the flat file descriptor list.
func (a *Archive) Files() []FileDescriptor {
	return a.files
}

// FindContainer returns the container called name.
func (a *Archive) FindContainer(name string) (*ContainerDescriptor, error) {
	return findContainer(a.containers, name)
}

// ReadContainer returns the decompressed content of the container called name.
func (a *Archive) ReadContainer(name string) ([]byte, error) {
	c, err := a.FindContainer(name)
	if err != nil {
		return nil, err
	}
	return ReadContainer(a.file, c)
}

// ReadFile returns the content of one file of the container called container.
func (a *Archive) ReadFile(container, name string) ([]byte, error) {
	c, err := a.FindContainer(container)
	if err != nil {
		return nil, err
	}
	owned, err := c.Files(a.files)
	if err != nil {
		return nil, err
	}
	want := normalizeName(name)
	for i := range owned {
		if normalizeName(owned[i].Name) != want {
			continue
		}
		buf, err := ReadContainer(a.file, c)
		if err != nil {
			return nil, err
		}
		return buf[owned[i].Offset:owned[i].End()], nil
	}
	return nil, fmt.Errorf("%w: container %s has no file %s", ErrInvalidDescriptor, c.Name, name)
}

// ExtractAll extracts every container under outputRoot.
func (a *Archive) ExtractAll(outputRoot string) (*Report, error) {
	return a.extractor.Extract(outputRoot)
}

// ExtractContainer extracts the container called name under outputRoot.
func (a *Archive) ExtractContainer(name, outputRoot string) (*Report, error) {
	return a.extractor.ExtractContainer(name, outputRoot)
}
