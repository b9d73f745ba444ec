// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/suprsokr/go-rrdat"
	"github.com/suprsokr/go-rrdat/toc"
)

// tocFlags selects where the descriptor tables come from.
type tocFlags struct {
	platform string
	game     string
	index    string
	info     string
}

func (t *tocFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&t.platform, "platform", "", "platform id (rr7, rr6, rrp, rre, gvnx), see the presets command")
	fs.StringVar(&t.game, "game", "", "game code, e.g. NPUB30457, when the platform has several")
	fs.StringVar(&t.index, "index", "", "decrypted executable holding the tables")
	fs.StringVar(&t.info, "info", "", "info side file (Ridge Racer PS Vita) instead of an executable")
}

// locate reads the tables from the info file or the executable.
func (t *tocFlags) locate(logger *slog.Logger) (toc.Locator, error) {
	if t.info != "" {
		if err := checkExists(t.info, "info"); err != nil {
			return nil, err
		}
		info := toc.NewInfo(t.info, logger)
		if err := info.Read(); err != nil {
			return nil, err
		}
		return info, nil
	}

	if t.index == "" {
		return nil, errors.New("one of -index or -info is required")
	}
	if err := checkExists(t.index, "executable"); err != nil {
		return nil, err
	}
	preset, err := toc.LookupPreset(t.platform, t.game)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(t.index)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exe := toc.NewExecutable(f, preset)
	if err := exe.Read(); err != nil {
		return nil, fmt.Errorf("read tables of %s: %w", preset, err)
	}
	logger.Info("read tables", "preset", preset.String())
	return exe, nil
}

func checkExists(path, what string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("provided %s file %q does not exist", what, path)
	}
	return nil
}

func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	var (
		tf       tocFlags
		input    = fs.String("input", "", "input .DAT archive")
		output   = fs.String("output", "", "output directory")
		workers  = fs.Int("workers", 1, "containers extracted concurrently")
		include  = fs.String("include", "", "comma separated container globs, e.g. data/car/**")
		manifest = fs.String("manifest", "", "write an xxhash manifest of the extracted files")
		verbose  = fs.Bool("v", false, "log every written file")
	)
	tf.register(fs)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *input == "" || *output == "" {
		return errors.New("extract: -input and -output are required")
	}
	if err := checkExists(*input, ".DAT"); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	loc, err := tf.locate(logger)
	if err != nil {
		return err
	}

	opts := []rrdat.Option{rrdat.WithLogger(logger), rrdat.WithWorkers(*workers)}
	if *include != "" {
		opts = append(opts, rrdat.WithInclude(strings.Split(*include, ",")...))
	}
	archive, err := rrdat.Open(*input, loc.Containers(*input), loc.Files(*input), opts...)
	if err != nil {
		return err
	}
	defer archive.Close()

	report, err := archive.ExtractAll(*output)
	if err != nil {
		return err
	}
	logger.Info("extraction done", "containers", len(report.Containers), "files", len(report.Files))

	if *manifest != "" {
		f, err := os.Create(*manifest)
		if err != nil {
			return err
		}
		if err := report.WriteManifest(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return nil
}

func runPatch(args []string) error {
	fs := flag.NewFlagSet("patch", flag.ContinueOnError)
	var (
		tf      tocFlags
		input   = fs.String("input", "", ".DAT archive to patch in place")
		staging = fs.String("staging", "", "staging directory with one folder per container")
		verbose = fs.Bool("v", false, "verbose logging")
	)
	tf.register(fs)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *input == "" || *staging == "" || tf.index == "" {
		return errors.New("patch: -input, -index and -staging are required")
	}
	if err := checkExists(*input, ".DAT"); err != nil {
		return err
	}

	logger := newLogger(*verbose)
	loc, err := tf.locate(logger)
	if err != nil {
		return err
	}
	patchable, ok := loc.(toc.Patchable)
	if !ok {
		return fmt.Errorf("%w: tables have no record layout", toc.ErrPatchUnsupported)
	}
	layout, err := patchable.Records(*input)
	if err != nil {
		return err
	}

	patcher, err := rrdat.OpenPatcher(*input, tf.index, layout,
		loc.Containers(*input), loc.Files(*input), rrdat.WithLogger(logger))
	if err != nil {
		return err
	}
	report, patchErr := patcher.Patch(*staging)
	if err := patcher.Close(); err != nil && patchErr == nil {
		patchErr = err
	}
	if report != nil {
		logger.Info("patch done", "patched", len(report.Patched), "rejected", len(report.Rejected), "archive_size", report.ArchiveSize)
	}
	return patchErr
}

func runList(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var (
		tf    tocFlags
		input = fs.String("input", "", "archive name or path the tables belong to")
	)
	tf.register(fs)
	if ok, err := parse(fs, args); !ok {
		return err
	}

	logger := newLogger(false)
	loc, err := tf.locate(logger)
	if err != nil {
		return err
	}

	containers, files := loc.Containers(*input), loc.Files(*input)
	for i := range containers {
		c := &containers[i]
		fmt.Fprintln(w, c.String())
		owned, err := c.Files(files)
		if err != nil {
			return err
		}
		for j := range owned {
			fmt.Fprintf(w, "  %s\n", owned[j].String())
		}
	}
	return nil
}

func runDecompress(args []string) error {
	fs := flag.NewFlagSet("decompress", flag.ContinueOnError)
	var (
		input  = fs.String("input", "", "compressed file starting with the 0x5A3F2E00 magic")
		output = fs.String("output", "", "decompressed output file")
	)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *input == "" || *output == "" {
		return errors.New("decompress: -input and -output are required")
	}

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := rrdat.DecodeLZStream(f)
	if err != nil {
		return err
	}
	return os.WriteFile(*output, data, 0644)
}

func runPresets(w io.Writer) error {
	for _, p := range toc.Presets() {
		tables := make([]string, 0, len(p.Tables))
		for _, t := range p.Tables {
			name := t.Archive
			if name == "" {
				name = "*"
			}
			tables = append(tables, name)
		}
		fmt.Fprintf(w, "%-5s %-12s %-32s %s\n", p.Platform, p.Game, p.Title, strings.Join(tables, ","))
	}
	return nil
}
