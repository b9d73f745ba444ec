// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"encoding/binary"

	"github.com/suprsokr/go-rrdat"
)

// Go Vacation (Switch), tables inside the decompressed main NSO. Name
// pointers are 64-bit and each archive has its own tables. This is the
// only title known to use deflate containers.
var goVacationNX = Preset{
	Platform: "gvnx",
	Game:     "MAIN",
	Title:    "Go Vacation (Switch)",
	Layout: Layout{
		Order:           binary.LittleEndian,
		NameBias:        -0xD8,
		ContainersFirst: true,
		Container: ContainerRecord{
			Size:             40,
			Name:             rrdat.Field{Offset: 0, Width: 8},
			SectorOffset:     rrdat.Field{Offset: 8, Width: 4},
			SectorSize:       rrdat.Field{Offset: 12, Width: 4},
			IndexStart:       rrdat.Field{Offset: 16, Width: 2},
			IndexEnd:         rrdat.Field{Offset: 18, Width: 2},
			Compression:      rrdat.Field{Offset: 20, Width: 4},
			CompressedSize:   rrdat.Field{Offset: 24, Width: 4},
			UncompressedSize: rrdat.Field{Offset: 28, Width: 4},
			PaddingSize:      rrdat.Field{Offset: 32, Width: 4},
		},
		File: FileRecord{
			Size:         32,
			Name:         rrdat.Field{Offset: 0, Width: 8},
			SectorOffset: rrdat.Field{Offset: 8, Width: 4},
			SectorSize:   rrdat.Field{Offset: 12, Width: 4},
			FileSize:     rrdat.Field{Offset: 20, Width: 4},
			Offset:       rrdat.Field{Offset: 24, Width: 4},
		},
	},
	Tables: []Table{
		{Archive: "DISC", Offset: 0x5610F82, ContainerCount: 944, FileCount: 6000},
		{Archive: "RIZ", Offset: 0x56505CA, ContainerCount: 10, FileCount: 1466},
		{Archive: "SHD", Offset: 0x5686B8A, ContainerCount: 9, FileCount: 77},
	},
}
