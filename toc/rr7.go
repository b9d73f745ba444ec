// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"encoding/binary"

	"github.com/suprsokr/go-rrdat"
)

// Container record shared by the 32-bit Ridge Racer executables.
var rrContainerRecord = ContainerRecord{
	Size:             36,
	Name:             rrdat.Field{Offset: 0, Width: 4},
	SectorOffset:     rrdat.Field{Offset: 4, Width: 4},
	SectorSize:       rrdat.Field{Offset: 8, Width: 2},
	IndexStart:       rrdat.Field{Offset: 10, Width: 2},
	IndexEnd:         rrdat.Field{Offset: 12, Width: 2},
	Compression:      rrdat.Field{Offset: 14, Width: 2},
	CompressedSize:   rrdat.Field{Offset: 16, Width: 4},
	UncompressedSize: rrdat.Field{Offset: 20, Width: 4},
	PaddingSize:      rrdat.Field{Offset: 24, Width: 4},
}

var rrFileRecord = FileRecord{
	Size:         20,
	Name:         rrdat.Field{Offset: 0, Width: 4},
	SectorOffset: rrdat.Field{Offset: 4, Width: 4},
	SectorSize:   rrdat.Field{Offset: 8, Width: 2},
	FileSize:     rrdat.Field{Offset: 12, Width: 4},
	Offset:       rrdat.Field{Offset: 16, Width: 4},
}

// Ridge Racer 7 (PS3), tables inside the decrypted main.self.
// File table first, container table right after it.
var rr7Layout = Layout{
	Order:              binary.BigEndian,
	BooleanCompression: true,
	Container:          rrContainerRecord,
	File:               rrFileRecord,
}

var rr7US = Preset{
	Platform: "rr7",
	Game:     "NPUB30457",
	Title:    "Ridge Racer 7 (PS3, US)",
	Layout:   withBias(rr7Layout, 0xFB30000),
	Tables: []Table{{
		Offset:         0x620128,
		ContainerCount: 2088,
		FileCount:      12810,
		ArchiveLength:  rrdat.Field{Offset: 0x620048, Width: 8},
	}},
}

// The archive length field of the EU executable has not been located,
// so this preset only extracts.
var rr7EU = Preset{
	Platform: "rr7",
	Game:     "NPEB00513",
	Title:    "Ridge Racer 7 (PS3, EU)",
	Layout:   withBias(rr7Layout, 0xFB20000),
	Tables: []Table{{
		Offset:         0x630128,
		ContainerCount: 2139,
		FileCount:      13313,
	}},
}

func withBias(l Layout, bias int64) Layout {
	l.NameBias = bias
	return l
}
