// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import "encoding/binary"

// Ridge Racer 6 (X360), tables inside the decrypted default.xex. The three
// archives share one block of tables, each 8-byte aligned.
var rr6 = Preset{
	Platform: "rr6",
	Game:     "XEX",
	Title:    "Ridge Racer 6 (X360)",
	Layout: Layout{
		Order:              binary.BigEndian,
		NameBias:           0x81FFE000,
		ContainersFirst:    true,
		TableAlign:         8,
		BooleanCompression: true,
		Container:          rrContainerRecord,
		File:               rrFileRecord,
	},
	Tables: []Table{
		{Archive: "RRM", Offset: 0x339698, ContainerCount: 431, FileCount: 1277},
		{Archive: "RRM2", Follows: true, ContainerCount: 60, FileCount: 550},
		{Archive: "RRM3", Follows: true, ContainerCount: 1224, FileCount: 1465},
	},
}
