package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

var world = r2.Box{Min: r2.Vec{X: -1000, Y: -500}, Max: r2.Vec{X: 1000, Y: 500}}

func TestNew(t *testing.T) {
	cam := New(1000, 1000, world)

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Y)
	}
	// Width is the binding dimension: 1000 px / 2000 units.
	if cam.Zoom != 0.5 || cam.MinZoom != 0.5 {
		t.Errorf("expected zoom 0.5, got %f (min %f)", cam.Zoom, cam.MinZoom)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, world)
	cam.SetZoom(2)
	cam.Pan(300, -100)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, world)
	cam.SetZoom(1)
	cam.Pan(-5000, 5000)

	if cam.X != -1000 || cam.Y != 500 {
		t.Errorf("expected center clamped to (-1000, 500), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, world)
	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.ZoomBy(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestFootprint(t *testing.T) {
	cam := New(800, 400, world)
	cam.SetZoom(2)
	cam.X, cam.Y = 100, 50

	fp := cam.Footprint()
	want := r2.Box{Min: r2.Vec{X: -100, Y: -50}, Max: r2.Vec{X: 300, Y: 150}}
	if fp != want {
		t.Errorf("footprint = %v, want %v", fp, want)
	}
	if !cam.IsVisible(290, 140, 0) || cam.IsVisible(320, 50, 10) {
		t.Error("visibility should match the footprint")
	}
}

func TestSetWorldReclamps(t *testing.T) {
	cam := New(1000, 1000, world)
	cam.SetZoom(1)
	cam.Pan(900, 0)
	cam.SetWorld(r2.Box{Min: r2.Vec{X: -200, Y: -200}, Max: r2.Vec{X: 200, Y: 200}})
	if cam.X != 200 {
		t.Errorf("expected X clamped to 200, got %f", cam.X)
	}
}
