package theme

import (
	"image/color"
)

// Theme defines the colour palette of the editor window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window background around the image
	Foreground color.RGBA // Status text

	// Status bar
	ToolbarBackground color.RGBA
	ToolbarText       color.RGBA
	BusyText          color.RGBA // Shown while an erase is running
	ErrorText         color.RGBA // Last erase error

	// Brush cursor outline
	Cursor color.RGBA

	// Canvas
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        color.RGBA{220, 220, 220, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		ToolbarBackground: color.RGBA{200, 200, 200, 255},
		ToolbarText:       color.RGBA{0, 0, 0, 255},
		BusyText:          color.RGBA{30, 80, 200, 255},
		ErrorText:         color.RGBA{190, 20, 20, 255},
		Cursor:            color.RGBA{0, 0, 0, 255},
		CheckerLight:      color.RGBA{220, 220, 220, 255},
		CheckerDark:       color.RGBA{192, 192, 192, 255},
	}
}

// Dark returns the built-in dark theme.
func Dark() *Theme {
	return &Theme{
		Name:              "Dark",
		Background:        color.RGBA{32, 33, 36, 255},
		Foreground:        color.RGBA{232, 234, 237, 255},
		ToolbarBackground: color.RGBA{48, 49, 52, 255},
		ToolbarText:       color.RGBA{232, 234, 237, 255},
		BusyText:          color.RGBA{138, 180, 248, 255},
		ErrorText:         color.RGBA{242, 139, 130, 255},
		Cursor:            color.RGBA{255, 255, 255, 255},
		CheckerLight:      color.RGBA{70, 70, 70, 255},
		CheckerDark:       color.RGBA{50, 50, 50, 255},
	}
}

var builtin = map[string]func() *Theme{
	"default": Default,
	"dark":    Dark,
}

// Builtin returns the named built-in theme.
func Builtin(name string) (*Theme, bool) {
	fn, ok := builtin[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}
