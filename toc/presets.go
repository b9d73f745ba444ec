// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package toc

import (
	"fmt"
	"strings"
)

// Preset is a known executable: the layout of its tables and where they are.
type Preset struct {
	Platform string // short platform id, e.g. "rr7"
	Game     string // game code or executable name
	Title    string

	Layout Layout
	Tables []Table
}

func (p *Preset) String() string {
	return fmt.Sprintf("%s %s (%s)", p.Platform, p.Game, p.Title)
}

var presets = []*Preset{
	&rr7US,
	&rr7EU,
	&rr6,
	&rrpEU,
	&rrpJP2,
	&rrpJP,
	&rre,
	&goVacationNX,
}

// Presets returns every known preset.
func Presets() []*Preset {
	return presets
}

// LookupPreset finds the preset for platform and game, both matched case
// insensitively. game may be empty when the platform has a single preset.
func LookupPreset(platform, game string) (*Preset, error) {
	var matches []*Preset
	for _, p := range presets {
		if !strings.EqualFold(p.Platform, platform) {
			continue
		}
		if game == "" || strings.EqualFold(p.Game, game) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: platform %q game %q", ErrUnknownPreset, platform, game)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: platform %q needs a game code", ErrUnknownPreset, platform)
	}
}
