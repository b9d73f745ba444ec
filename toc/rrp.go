// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import "encoding/binary"

// Ridge Racer PSP, tables inside BOOT.BIN. File records carry four extra
// bytes of padding.
var rrpLayout = Layout{
	Order:              binary.LittleEndian,
	ContainersFirst:    true,
	BooleanCompression: true,
	Container:          rrContainerRecord,
	File:               withStride(rrFileRecord, 24),
}

var rrpEU = Preset{
	Platform: "rrp",
	Game:     "UCES00422",
	Title:    "Ridge Racer 2 (PSP, EU)",
	Layout:   withBias(rrpLayout, -0xC0),
	Tables:   []Table{{Offset: 0x1C754C, ContainerCount: 1651, FileCount: 4247}},
}

var rrpJP2 = Preset{
	Platform: "rrp",
	Game:     "ULJS00080",
	Title:    "Ridge Racers 2 (PSP, JP)",
	Layout:   withBias(rrpLayout, -0xC0),
	Tables:   []Table{{Offset: 0x1C694C, ContainerCount: 1487, FileCount: 3400}},
}

var rrpJP = Preset{
	Platform: "rrp",
	Game:     "ULJS00001",
	Title:    "Ridge Racers (PSP, JP)",
	Layout:   withBias(rrpLayout, -0x80),
	Tables:   []Table{{Offset: 0x1B6914, ContainerCount: 716, FileCount: 2632}},
}

func withStride(r FileRecord, size int64) FileRecord {
	r.Size = size
	return r
}
