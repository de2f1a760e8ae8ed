package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/bathymetry"
	"github.com/pthm-cable/swell/camera"
)

// DepthRenderer draws the sea floor as a texture stretched over the world.
type DepthRenderer struct {
	gridW, gridH int
	bounds       r2.Box
	maxDepth     float32

	grid    []float32
	pixels  []color.RGBA
	texture rl.Texture2D

	initialized bool
}

// NewDepthRenderer creates a depth renderer sampling a gridW x gridH grid.
func NewDepthRenderer(gridW, gridH int) *DepthRenderer {
	return &DepthRenderer{gridW: gridW, gridH: gridH}
}

// Init creates the texture (must be called after raylib window is created).
func (d *DepthRenderer) Init() {
	if d.initialized {
		return
	}
	img := rl.GenImageColor(d.gridW, d.gridH, rl.Black)
	d.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(d.texture, rl.FilterBilinear)
	d.pixels = make([]color.RGBA, d.gridW*d.gridH)
	d.initialized = true
}

// Rebuild resamples field over bounds and uploads the result.
func (d *DepthRenderer) Rebuild(field *bathymetry.Field, bounds r2.Box) {
	if !d.initialized {
		d.Init()
	}
	d.bounds = bounds
	d.maxDepth = float32(field.Params().MaxDepth)
	d.grid = field.Sample(bounds, d.gridW, d.gridH, d.grid)
	for i, depth := range d.grid {
		d.pixels[i] = depthColor(depth, d.maxDepth)
	}
	rl.UpdateTexture(d.texture, d.pixels)
}

// Draw stretches the depth texture over the sampled bounds.
func (d *DepthRenderer) Draw(cam *camera.Camera) {
	if !d.initialized {
		return
	}
	x0, y0 := cam.WorldToScreen(float32(d.bounds.Min.X), float32(d.bounds.Min.Y))
	x1, y1 := cam.WorldToScreen(float32(d.bounds.Max.X), float32(d.bounds.Max.Y))
	rl.DrawTexturePro(
		d.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(d.gridW), Height: float32(d.gridH)},
		rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		rl.Vector2{},
		0,
		rl.White,
	)
}

// Unload frees resources.
func (d *DepthRenderer) Unload() {
	if d.initialized {
		rl.UnloadTexture(d.texture)
		d.initialized = false
	}
}

// depthColor maps land to sand and water from shallow turquoise to deep navy.
func depthColor(depth, maxDepth float32) color.RGBA {
	if depth <= 0 {
		return color.RGBA{R: 194, G: 178, B: 128, A: 255}
	}
	t := depth / maxDepth
	if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: uint8(40 - t*32),
		G: uint8(170 - t*140),
		B: uint8(190 - t*110),
		A: 255,
	}
}
