// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		platform string
		game     string
		want     *Preset
	}{
		{"rr7", "NPUB30457", &rr7US},
		{"RR7", "npeb00513", &rr7EU},
		{"rr6", "", &rr6},
		{"rr6", "xex", &rr6},
		{"rrp", "ULJS00001", &rrpJP},
		{"rre", "", &rre},
		{"gvnx", "", &goVacationNX},
	}

	for _, tt := range tests {
		t.Run(tt.platform+"/"+tt.game, func(t *testing.T) {
			got, err := LookupPreset(tt.platform, tt.game)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestLookupPresetErrors(t *testing.T) {
	_, err := LookupPreset("rr7", "")
	require.ErrorIs(t, err, ErrUnknownPreset)
	assert.Contains(t, err.Error(), "needs a game code")

	_, err = LookupPreset("rr7", "NPUB00000")
	require.ErrorIs(t, err, ErrUnknownPreset)

	_, err = LookupPreset("wii", "")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestPresetsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Presets() {
		key := p.Platform + "/" + p.Game
		assert.False(t, seen[key], key)
		seen[key] = true
	}
	assert.Len(t, seen, 8)
}

func TestPresetString(t *testing.T) {
	assert.Equal(t, "rr6 XEX (Ridge Racer 6 (X360))", rr6.String())
}

func TestArchiveKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RRM.DAT", "RRM"},
		{"/games/rr6/rrm2.dat", "RRM2"},
		{`D:\games\rr6\RRM3.DAT`, "RRM3"},
		{"disc.arc.dat", "DISC.ARC"},
		{"riz", "RIZ"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ArchiveKey(tt.in))
		})
	}
}
