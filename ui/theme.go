// Package ui draws the viewer's heads-up display and tuning panels.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme is the viewer palette and layout metrics, in pixels.
type Theme struct {
	Panel, Border rl.Color
	Header        rl.Color
	Label, Value  rl.Color

	// Bars shade from Calm to Rough as they fill; past the high mark they
	// switch to Alert.
	Track, Calm, Rough, Alert rl.Color

	Pad, Line  int32
	LabelW     int32
	BarH       int32
	Font       int32
	HeaderFont int32
}

// DefaultTheme returns the deep-water palette.
func DefaultTheme() Theme {
	return Theme{
		Panel:      rl.Color{R: 6, G: 22, B: 38, A: 225},
		Border:     rl.Color{R: 40, G: 96, B: 120, A: 255},
		Header:     rl.Color{R: 120, G: 230, B: 220, A: 255},
		Label:      rl.Color{R: 150, G: 180, B: 195, A: 255},
		Value:      rl.Color{R: 235, G: 245, B: 250, A: 255},
		Track:      rl.Color{R: 20, G: 40, B: 55, A: 255},
		Calm:       rl.Color{R: 40, G: 140, B: 190, A: 255},
		Rough:      rl.Color{R: 200, G: 230, B: 255, A: 255},
		Alert:      rl.Color{R: 240, G: 110, B: 80, A: 255},
		Pad:        10,
		Line:       16,
		LabelW:     90,
		BarH:       12,
		Font:       12,
		HeaderFont: 14,
	}
}

// BarColor shades a bar filled to ratio, or returns Alert at or above highAt.
func (t Theme) BarColor(ratio, highAt float32) rl.Color {
	if ratio >= highAt {
		return t.Alert
	}
	mix := func(a, b uint8) uint8 { return uint8(float32(a) + (float32(b)-float32(a))*ratio) }
	return rl.Color{
		R: mix(t.Calm.R, t.Rough.R),
		G: mix(t.Calm.G, t.Rough.G),
		B: mix(t.Calm.B, t.Rough.B),
		A: 255,
	}
}
