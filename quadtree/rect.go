package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// marginRatio is how far a node's margin extends past its rect on each side,
// as a fraction of the rect size.
const marginRatio = 0.0025

// Contains reports whether p lies inside b, edges included.
func Contains(b r2.Box, p r2.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Overlaps reports whether a and b share any area or edge.
func Overlaps(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X && a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y
}

// Center returns the midpoint of b.
func Center(b r2.Box) r2.Vec {
	return r2.Scale(0.5, r2.Add(b.Min, b.Max))
}

// Inflate grows b on every side by ratio times its size.
func Inflate(b r2.Box, ratio float64) r2.Box {
	pad := r2.Scale(ratio, r2.Sub(b.Max, b.Min))
	return r2.Box{Min: r2.Sub(b.Min, pad), Max: r2.Add(b.Max, pad)}
}

// Finite reports whether both coordinates of p are neither NaN nor infinite.
func Finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// quarters splits b into four boxes indexed by quadrant.
func quarters(b r2.Box) [4]r2.Box {
	c := Center(b)
	return [4]r2.Box{
		{Min: b.Min, Max: c},
		{Min: r2.Vec{X: c.X, Y: b.Min.Y}, Max: r2.Vec{X: b.Max.X, Y: c.Y}},
		{Min: r2.Vec{X: b.Min.X, Y: c.Y}, Max: r2.Vec{X: c.X, Y: b.Max.Y}},
		{Min: c, Max: b.Max},
	}
}

// quadrant picks the child index for p by comparing against the center c.
func quadrant(c, p r2.Vec) int {
	q := 0
	if p.X >= c.X {
		q |= 1
	}
	if p.Y >= c.Y {
		q |= 2
	}
	return q
}
