package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.Panel)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.Border)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFont, r.Theme.Header)
	return y + r.Theme.Line + 2
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.Font, r.Theme.Label)
	rl.DrawText(value, x+r.Theme.LabelW, y, r.Theme.Font, r.Theme.Value)
	return y + r.Theme.Line
}

// DrawBar draws value/max as a bar, switching colour above highAt.
func (r *Renderer) DrawBar(x, y int32, label string, value, max, highAt float32, width int32) int32 {
	ratio := float32(0)
	if max > 0 {
		ratio = value / max
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	barX := x + r.Theme.LabelW
	barWidth := width - r.Theme.LabelW - 50

	rl.DrawText(label+":", x, y, r.Theme.Font, r.Theme.Label)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarH, r.Theme.Track)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*ratio), r.Theme.BarH, r.Theme.BarColor(ratio, highAt))
	rl.DrawText(fmt.Sprintf("%.1f", value), barX+barWidth+5, y, r.Theme.Font, r.Theme.Value)

	return y + r.Theme.Line + 2
}

// DrawSlider draws a labelled raygui slider and returns the new value and Y
// position.
func (r *Renderer) DrawSlider(x, y int32, label, format string, value, min, max float32, width int32) (float32, int32) {
	rl.DrawText(label, x, y, r.Theme.Font, r.Theme.Label)
	y += r.Theme.Line
	value = gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width - 60), Height: 16},
		"", "", value, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, value), x+width-55, y+2, r.Theme.Font, r.Theme.Value)
	return value, y + r.Theme.Line + 6
}
