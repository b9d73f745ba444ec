// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

var zeroBlock [BlockSize]byte

// Patcher injects replacement files into a DAT archive. Replacement data is
// appended after the archive's current end and the index records of the
// affected descriptors are rewritten in place. Patched containers are
// stored uncompressed.
//
// The descriptor slices are borrowed and updated in place with the values
// written to the index. A Patcher is not safe for concurrent use.
type Patcher struct {
	archive    io.WriteSeeker
	index      io.WriterAt
	layout     RecordLayout
	containers []ContainerDescriptor
	files      []FileDescriptor
	opts       options
	closers    []io.Closer
}

// RejectedFolder is a staging folder that was not applied.
type RejectedFolder struct {
	Path string
	Err  error
}

// PatchReport summarizes a Patch run.
type PatchReport struct {
	Patched     []string
	Rejected    []RejectedFolder
	ArchiveSize int64
}

// NewPatcher returns a patcher writing to archive and index.
func NewPatcher(archive io.WriteSeeker, index io.WriterAt, layout RecordLayout, containers []ContainerDescriptor, files []FileDescriptor, opts ...Option) (*Patcher, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	for i := range containers {
		if err := containers[i].Validate(len(files)); err != nil {
			return nil, err
		}
	}
	return &Patcher{
		archive:    archive,
		index:      index,
		layout:     layout,
		containers: containers,
		files:      files,
		opts:       newOptions(opts),
	}, nil
}

// OpenPatcher opens the archive and the index file (usually the game
// executable) for in-place writing.
func OpenPatcher(archivePath, indexPath string, layout RecordLayout, containers []ContainerDescriptor, files []FileDescriptor, opts ...Option) (*Patcher, error) {
	archive, err := os.OpenFile(archivePath, os.O_RDWR, 0)
	if err != nil {
		return nil, ioError("open archive", err)
	}
	index, err := os.OpenFile(indexPath, os.O_RDWR, 0)
	if err != nil {
		archive.Close()
		return nil, ioError("open index", err)
	}

	p, err := NewPatcher(archive, index, layout, containers, files, opts...)
	if err != nil {
		archive.Close()
		index.Close()
		return nil, err
	}
	p.closers = []io.Closer{archive, index}
	return p, nil
}

// Close closes the files opened by OpenPatcher.
func (p *Patcher) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

// Patch applies every container folder found under stagingDir.
//
// Folder paths relative to stagingDir are matched against container names.
// A folder that names no container, or whose files are not exactly the
// container's files, is rejected without writing anything and the other
// folders are still applied. The rejections are returned joined, alongside
// the report. I/O failures stop the run immediately; data already appended
// for the failing container is left orphaned past the recorded end.
func (p *Patcher) Patch(stagingDir string) (*PatchReport, error) {
	info, err := os.Stat(stagingDir)
	if err != nil {
		return nil, ioError("stat staging directory", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: staging path %s is not a directory", ErrIO, stagingDir)
	}

	run := &patchRun{
		Patcher: p,
		root:    stagingDir,
		cursor:  ArchiveEnd(p.containers),
		report:  &PatchReport{},
	}
	if err := run.walk("", false); err != nil {
		return run.report, err
	}

	if len(run.report.Patched) > 0 {
		if err := run.writeArchiveLength(); err != nil {
			return run.report, err
		}
	}

	errs := make([]error, 0, len(run.report.Rejected))
	for _, r := range run.report.Rejected {
		errs = append(errs, fmt.Errorf("%s: %w", r.Path, r.Err))
	}
	return run.report, errors.Join(errs...)
}

// PatchContainer applies a single folder to the container called name.
func (p *Patcher) PatchContainer(name, folder string) (*PatchReport, error) {
	c, err := findContainer(p.containers, name)
	if err != nil {
		return nil, err
	}
	run := &patchRun{
		Patcher: p,
		root:    folder,
		cursor:  ArchiveEnd(p.containers),
		report:  &PatchReport{},
	}
	if err := run.apply(c, folder); err != nil {
		return run.report, err
	}
	if err := run.writeArchiveLength(); err != nil {
		return run.report, err
	}
	return run.report, nil
}

// patchRun holds the append cursor of one Patch call.
type patchRun struct {
	*Patcher
	root   string
	cursor int64
	report *PatchReport
}

// writeArchiveLength stores the physical archive length in the index.
func (r *patchRun) writeArchiveLength() error {
	size, err := r.archive.Seek(0, io.SeekEnd)
	if err != nil {
		return ioError("seek archive end", err)
	}
	batch := &recordBatch{order: r.layout.Order}
	if err := batch.put(0, r.layout.ArchiveLength, uint64(size)); err != nil {
		return fmt.Errorf("total archive length: %w", err)
	}
	if err := batch.commit(r.index); err != nil {
		return err
	}
	r.report.ArchiveSize = size
	r.opts.logger.Info("updated archive length", "size", size)
	return nil
}

// walk visits the staging directory at rel (slash separated, "" for the
// root), applying container folders and rejecting everything else. Inside
// a container folder, entries other than nested container folders belong
// to that container and are left alone.
func (r *patchRun) walk(rel string, inContainer bool) error {
	entries, err := os.ReadDir(filepath.Join(r.root, filepath.FromSlash(rel)))
	if err != nil {
		return ioError("read staging directory", err)
	}

	for _, entry := range entries {
		name := path.Join(rel, entry.Name())
		if !entry.IsDir() {
			if !inContainer {
				r.reject(name, fmt.Errorf("%w: loose file outside any container folder", ErrUnknownContainer))
			}
			continue
		}

		if c, err := findContainer(r.containers, name); err == nil {
			if err := r.apply(c, filepath.Join(r.root, filepath.FromSlash(name))); err != nil {
				if errors.Is(err, ErrIO) {
					return err
				}
				r.reject(name, err)
			}
			if r.isParent(name) {
				if err := r.walk(name, true); err != nil {
					return err
				}
			}
			continue
		}

		if r.isParent(name) {
			if err := r.walk(name, inContainer); err != nil {
				return err
			}
			continue
		}
		if !inContainer {
			r.reject(name, fmt.Errorf("%w: %s", ErrUnknownContainer, name))
		}
	}
	return nil
}

// isParent reports whether dir is a leading directory of some container name.
func (r *patchRun) isParent(dir string) bool {
	prefix := dir + "/"
	for i := range r.containers {
		if strings.HasPrefix(normalizeName(r.containers[i].Name), prefix) {
			return true
		}
	}
	return false
}

// isContainer reports whether name is exactly a container name.
func (r *patchRun) isContainer(name string) bool {
	_, err := findContainer(r.containers, name)
	return err == nil
}

func (r *patchRun) reject(name string, err error) {
	r.opts.logger.Warn("rejected staging folder", "folder", name, "error", err)
	r.report.Rejected = append(r.report.Rejected, RejectedFolder{Path: name, Err: err})
}

// plannedFile is a staged replacement and the descriptor it will produce.
type plannedFile struct {
	src  string
	size int64
	desc FileDescriptor
}

// apply appends the files staged in dir to the archive and rewrites the
// records of c. Nothing is written unless the staged set matches the
// container's files exactly and every new value fits its record field.
func (r *patchRun) apply(c *ContainerDescriptor, dir string) error {
	owned, err := c.Files(r.files)
	if err != nil {
		return err
	}
	staged, err := collectStaged(dir, normalizeName(c.Name), r.isContainer)
	if err != nil {
		return err
	}
	if err := checkBijection(c, owned, staged); err != nil {
		return err
	}

	// Plan in descriptor order; indices are shared with the file table.
	base := r.cursor
	pos := base
	plan := make([]plannedFile, len(owned))
	for i := range owned {
		src := staged[normalizeName(owned[i].Name)]
		info, err := os.Stat(src)
		if err != nil {
			return ioError("stat staged file", err)
		}
		size := info.Size()
		if size > math.MaxUint32 {
			return fmt.Errorf("%w: %s is %d bytes", ErrInvalidDescriptor, owned[i].Name, size)
		}
		blocks := (size + BlockSize - 1) / BlockSize

		desc := owned[i]
		desc.SectorOffset = uint32(pos / BlockSize)
		desc.SectorSize = uint32(blocks)
		desc.Size = uint32(size)
		desc.Offset = uint32(pos - base)
		plan[i] = plannedFile{src: src, size: size, desc: desc}
		pos += blocks * BlockSize
	}
	if pos/BlockSize > math.MaxUint32 || pos-base > math.MaxUint32 {
		return fmt.Errorf("%w: container %s would end at 0x%X", ErrInvalidDescriptor, c.Name, pos)
	}

	container := *c
	container.SectorOffset = uint32(base / BlockSize)
	container.SectorSize = uint32((pos - base) / BlockSize)
	container.Compression = CompressionNone
	container.CompressedSize = 0
	container.UncompressedSize = 0

	batch := &recordBatch{order: r.layout.Order}
	for i := range plan {
		if err := r.layout.fileRecord(batch, &plan[i].desc); err != nil {
			return err
		}
	}
	if err := r.layout.containerRecord(batch, &container); err != nil {
		return err
	}

	// Commit: archive data first, then the index.
	if _, err := r.archive.Seek(base, io.SeekStart); err != nil {
		return ioError("seek archive", err)
	}
	for i := range plan {
		if err := appendFile(r.archive, plan[i].src, plan[i].size); err != nil {
			return err
		}
	}
	r.cursor = pos

	if err := batch.commit(r.index); err != nil {
		return err
	}
	for i := range plan {
		owned[i] = plan[i].desc
	}
	*c = container

	r.opts.logger.Info("patched container",
		"container", c.Name,
		"sector_offset", c.SectorOffset,
		"sectors", c.SectorSize,
		"files", len(plan),
	)
	r.report.Patched = append(r.report.Patched, c.Name)
	return nil
}

// collectStaged maps the slash separated path of every regular file below
// dir to its location on disk. dir holds the container called name;
// subdirectories that are folders of other containers are skipped.
func collectStaged(dir, name string, isContainer func(string) bool) (map[string]string, error) {
	staged := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && isContainer(path.Join(name, rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		staged[rel] = p
		return nil
	})
	if err != nil {
		return nil, ioError("scan staging folder", err)
	}
	return staged, nil
}

// checkBijection verifies that staged holds exactly the files of owned,
// one staged file per descriptor.
func checkBijection(c *ContainerDescriptor, owned []FileDescriptor, staged map[string]string) error {
	want := make(map[string]int, len(owned))
	var missing, duplicate []string
	for i := range owned {
		name := normalizeName(owned[i].Name)
		want[name]++
		if want[name] == 2 {
			duplicate = append(duplicate, name)
		}
		if _, ok := staged[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(duplicate) > 0 {
		slices.Sort(duplicate)
		return fmt.Errorf("%w: container %s: files %q are listed more than once", ErrDescriptorMismatch, c.Name, duplicate)
	}
	var unexpected []string
	for name := range staged {
		if want[name] == 0 {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}
	slices.Sort(missing)
	slices.Sort(unexpected)
	return fmt.Errorf("%w: container %s: missing %q, unexpected %q", ErrDescriptorMismatch, c.Name, missing, unexpected)
}

// appendFile copies size bytes of src to w and pads w to the next block
// boundary.
func appendFile(w io.Writer, src string, size int64) error {
	f, err := os.Open(src)
	if err != nil {
		return ioError("open staged file", err)
	}
	defer f.Close()

	if _, err := io.CopyN(w, f, size); err != nil {
		return ioError(fmt.Sprintf("append %s", src), err)
	}
	if pad := (BlockSize - size%BlockSize) % BlockSize; pad > 0 {
		if _, err := w.Write(zeroBlock[:pad]); err != nil {
			return ioError("pad archive", err)
		}
	}
	return nil
}
