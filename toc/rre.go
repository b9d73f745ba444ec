// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"encoding/binary"

	"github.com/suprsokr/go-rrdat"
)

// R: Racing Evolution (PS2), tables inside SLES_523.09. Fields that are
// shorts on the other platforms are ints here.
var rre = Preset{
	Platform: "rre",
	Game:     "SLES_523.09",
	Title:    "R: Racing Evolution (PS2, EU)",
	Layout: Layout{
		Order:           binary.LittleEndian,
		NameBias:        0xFF000,
		ContainersFirst: true,
		Container: ContainerRecord{
			Size:             42,
			Name:             rrdat.Field{Offset: 0, Width: 4},
			SectorOffset:     rrdat.Field{Offset: 4, Width: 4},
			SectorSize:       rrdat.Field{Offset: 8, Width: 4},
			IndexStart:       rrdat.Field{Offset: 12, Width: 4},
			IndexEnd:         rrdat.Field{Offset: 16, Width: 4},
			Compression:      rrdat.Field{Offset: 20, Width: 2},
			CompressedSize:   rrdat.Field{Offset: 22, Width: 4},
			UncompressedSize: rrdat.Field{Offset: 26, Width: 4},
			PaddingSize:      rrdat.Field{Offset: 30, Width: 4},
		},
		File: FileRecord{
			Size:         28,
			Name:         rrdat.Field{Offset: 0, Width: 4},
			SectorOffset: rrdat.Field{Offset: 4, Width: 4},
			SectorSize:   rrdat.Field{Offset: 8, Width: 4},
			FileSize:     rrdat.Field{Offset: 16, Width: 4},
			Offset:       rrdat.Field{Offset: 20, Width: 4},
		},
	},
	Tables: []Table{{Offset: 0x399EC0, ContainerCount: 3320, FileCount: 5233}},
}
