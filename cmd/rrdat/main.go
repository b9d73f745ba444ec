// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Command rrdat extracts and repacks Ridge Racer DAT archives.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

const usage = `usage: rrdat <command> [flags]

commands:
  extract     extract every container of an archive
  patch       inject a staging folder of replacement files
  list        print the container and file descriptors
  decompress  decode a standalone compressed file
  presets     list the known executables

run "rrdat <command> -h" for the flags of a command
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "extract":
		err = runExtract(args)
	case "patch":
		err = runPatch(args)
	case "list":
		err = runList(args, os.Stdout)
	case "decompress":
		err = runDecompress(args)
	case "presets":
		err = runPresets(os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "rrdat: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
