// Package camera provides a 2D camera over the sea for viewport control.
package camera

import "gonum.org/v1/gonum/spatial/r2"

// Camera controls the viewport into the simulation world. The world is a
// bounded rectangle; the camera center is kept inside it.
type Camera struct {
	// Position is the camera center in world coordinates (x, z)
	X, Y float32

	// Zoom is screen pixels per world unit
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World bounds the center may not leave
	World r2.Box

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on world, zoomed out to show all of it.
func New(viewportW, viewportH float32, world r2.Box) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		World:     world,
		MaxZoom:   20,
	}
	c.MinZoom = c.fitZoom()
	c.Reset()
	return c
}

// fitZoom is the zoom at which the whole world fits in the viewport.
func (c *Camera) fitZoom() float32 {
	w := float32(c.World.Max.X - c.World.Min.X)
	h := float32(c.World.Max.Y - c.World.Min.Y)
	if w <= 0 || h <= 0 {
		return 1
	}
	z := c.ViewportW / w
	if zh := c.ViewportH / h; zh < z {
		z = zh
	}
	return z
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
}

// SetWorld replaces the world bounds, e.g. after the simulation root grows.
func (c *Camera) SetWorld(world r2.Box) {
	c.World = world
	c.MinZoom = c.fitZoom()
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera on the world at the fitting zoom.
func (c *Camera) Reset() {
	c.X = float32(c.World.Min.X+c.World.Max.X) / 2
	c.Y = float32(c.World.Min.Y+c.World.Max.Y) / 2
	c.Zoom = c.MinZoom
}

// Footprint returns the world rectangle currently on screen.
func (c *Camera) Footprint() r2.Box {
	halfW := float64(c.ViewportW / (2 * c.Zoom))
	halfH := float64(c.ViewportH / (2 * c.Zoom))
	x, y := float64(c.X), float64(c.Y)
	return r2.Box{
		Min: r2.Vec{X: x - halfW, Y: y - halfH},
		Max: r2.Vec{X: x + halfW, Y: y + halfH},
	}
}

func (c *Camera) clampCenter() {
	c.X = clamp(c.X, float32(c.World.Min.X), float32(c.World.Max.X))
	c.Y = clamp(c.Y, float32(c.World.Min.Y), float32(c.World.Max.Y))
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
