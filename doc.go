// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package rrdat provides pure Go support for extracting and repacking the DAT
archives used by the Ridge Racer family of games and a few related titles
(Go Vacation).

A DAT archive is a sequence of containers addressed in 2048-byte sectors.
Each container holds one or more files and is either stored raw, compressed
with a custom LZ scheme, or compressed with zlib. The archive carries no index
of its own: the container and file tables live inside the game executable or
in a side file, and are located by the [toc] package.

# Basic Usage

Extracting an archive:

	loc := toc.NewExecutable(elf, preset)
	if err := loc.Read(); err != nil {
		log.Fatal(err)
	}

	archive, err := rrdat.Open("RR7.DAT", loc.Containers("RR7"), loc.Files("RR7"))
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	report, err := archive.ExtractAll("out")
	if err != nil {
		log.Fatal(err)
	}

Repacking a container:

	layout, err := loc.Records("RR7")
	if err != nil {
		log.Fatal(err)
	}

	patcher, err := rrdat.OpenPatcher("RR7.DAT", "main.elf", layout, containers, files)
	if err != nil {
		log.Fatal(err)
	}
	defer patcher.Close()

	report, err := patcher.Patch("mods")

The staging directory passed to Patch holds one folder per container, named
after the container, holding every file of that container. Replacement data is
appended to the archive and the affected records in the executable are
rewritten in place. Patched containers are always stored uncompressed.

# Decompression

[DecodeLZ] decodes a raw control-word stream and [DecodeLZStream] decodes
the self-describing variant that starts with the 0x5A3F2E00 magic, used for
standalone compressed files outside of DAT archives.

# Limitations

  - No LZ compressor: repacked containers are written uncompressed
  - No decryption of executables; ELF/XEX images must be decrypted beforehand
  - Container and file counts come from the TOC presets, never from the archive
*/
package rrdat
