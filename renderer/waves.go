package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/camera"
	"github.com/pthm-cable/swell/sim"
)

// RecordSource exposes leaf render records.
type RecordSource interface {
	VisitLeaves(fn func(bounds r2.Box, records []sim.Record))
}

// WaveRenderer draws particle records as short crest segments.
type WaveRenderer struct {
	// AmplitudeScale is the amplitude drawn at full brightness
	AmplitudeScale float32
	// ShowLeaves outlines quadtree leaves
	ShowLeaves bool
}

// NewWaveRenderer creates a wave renderer.
func NewWaveRenderer(amplitudeScale float32) *WaveRenderer {
	return &WaveRenderer{AmplitudeScale: amplitudeScale}
}

// Draw renders every record in a leaf overlapping the camera footprint.
func (r *WaveRenderer) Draw(src RecordSource, cam *camera.Camera) {
	view := cam.Footprint()
	src.VisitLeaves(func(bounds r2.Box, records []sim.Record) {
		if bounds.Max.X < view.Min.X || bounds.Min.X > view.Max.X ||
			bounds.Max.Y < view.Min.Y || bounds.Min.Y > view.Max.Y {
			return
		}
		if r.ShowLeaves {
			r.drawLeaf(bounds, cam)
		}
		for i := 0; i < len(records); i += sim.CornersPerSlot {
			rec := records[i]
			if rec.Empty() {
				continue
			}
			r.drawCrest(rec, cam)
		}
	})
}

// drawCrest draws a segment across the travel direction, half a wavelength long.
func (r *WaveRenderer) drawCrest(rec sim.Record, cam *camera.Camera) {
	// Dir carries the wavelength as its length.
	half := float32(0.25)
	px, pz := -rec.DirZ*half, rec.DirX*half

	x0, y0 := cam.WorldToScreen(rec.X-px, rec.Z-pz)
	x1, y1 := cam.WorldToScreen(rec.X+px, rec.Z+pz)

	t := float32(math.Abs(float64(rec.Amplitude))) / r.AmplitudeScale
	if t > 1 {
		t = 1
	}
	c := rl.Color{
		R: uint8(120 + t*135),
		G: uint8(180 + t*75),
		B: 255,
		A: uint8(60 + t*195),
	}
	if rec.Shoaling > 1.5 {
		// Steepening crests near shore
		c.R, c.G, c.B = 255, 255, 255
	}
	rl.DrawLineEx(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, 1+t*2, c)
}

func (r *WaveRenderer) drawLeaf(bounds r2.Box, cam *camera.Camera) {
	x0, y0 := cam.WorldToScreen(float32(bounds.Min.X), float32(bounds.Min.Y))
	x1, y1 := cam.WorldToScreen(float32(bounds.Max.X), float32(bounds.Max.Y))
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		1,
		rl.Color{R: 255, G: 255, B: 255, A: 40},
	)
}
