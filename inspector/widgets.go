package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg     = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill   = rl.Color{R: 90, G: 160, B: 220, A: 255}
	ColorText      = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim   = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorDirBg     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorDirNeedle = rl.Color{R: 255, G: 200, B: 100, A: 255}
	ColorBoolOn    = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff   = rl.Color{R: 80, G: 80, B: 80, A: 255}
)

// DrawLabel renders a text value.
func DrawLabel(x, y int32, name string, value any, options map[string]string) int32 {
	rl.DrawText(fmt.Sprintf("%s: %s", name, FormatValue(value, options["fmt"])), x, y, 14, ColorText)
	return 18
}

// DrawBar renders a horizontal bar scaled to the max option.
func DrawBar(x, y int32, name string, value float32, options map[string]string) int32 {
	ratio := value / GetMax(options)
	ratio = float32(math.Max(0, math.Min(1, float64(ratio))))

	const barWidth, barHeight = 120, 14
	rl.DrawText(name, x, y, 14, ColorTextDim)
	barX := x + 120
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)
	rl.DrawRectangle(barX, y, int32(barWidth*ratio), barHeight, ColorBarFill)
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, 14, ColorTextDim)
	return 18
}

// DrawDirection renders a compass needle for a direction vector in world
// axes (x right, z down).
func DrawDirection(x, y int32, name string, dx, dz float64) int32 {
	const size = 40
	cx := x + 120 + size/2
	cy := y + size/2

	rl.DrawText(name, x, cy-7, 14, ColorTextDim)
	rl.DrawCircle(cx, cy, size/2, ColorDirBg)
	rl.DrawCircleLines(cx, cy, size/2, ColorTextDim)

	angle := math.Atan2(dz, dx)
	needle := float64(size/2 - 4)
	rl.DrawLineEx(
		rl.Vector2{X: float32(cx), Y: float32(cy)},
		rl.Vector2{X: float32(cx) + float32(needle*math.Cos(angle)), Y: float32(cy) + float32(needle*math.Sin(angle))},
		2,
		ColorDirNeedle,
	)
	rl.DrawText(fmt.Sprintf("%.0f deg", angle*180/math.Pi), cx+size/2+5, cy-7, 14, ColorTextDim)
	return size + 4
}

// DrawBool renders an on/off indicator.
func DrawBool(x, y int32, name string, value bool) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	const size = 14
	ix := x + 120
	color, text := ColorBoolOff, "OFF"
	if value {
		color, text = ColorBoolOn, "ON"
	}
	rl.DrawRectangle(ix, y, size, size, color)
	rl.DrawText(text, ix+size+5, y, 14, color)
	return 18
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, field Field) int32 {
	switch field.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(field.Value); ok {
			return DrawBar(x, y, field.Name, v, field.Options)
		}
	case WidgetBool:
		if v, ok := field.Value.(bool); ok {
			return DrawBool(x, y, field.Name, v)
		}
	}
	return DrawLabel(x, y, field.Name, field.Value, field.Options)
}
