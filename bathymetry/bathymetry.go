// Package bathymetry provides a procedural sea floor: a shelf that shoals
// linearly towards a shore line, roughened with fractal simplex noise.
package bathymetry

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/config"
)

const (
	lacunarity = 2.0
	gain       = 0.5
)

// Params shapes the depth field. Depth is positive below the surface.
type Params struct {
	Seed           int64
	ShoreX         float64
	Slope          float64
	MaxDepth       float64
	NoiseScale     float64
	NoiseAmplitude float64
	Octaves        int
}

// ParamsFromConfig converts the bathymetry config section.
func ParamsFromConfig(c config.BathymetryConfig) Params {
	return Params{
		Seed:           c.Seed,
		ShoreX:         c.ShoreX,
		Slope:          c.Slope,
		MaxDepth:       c.MaxDepth,
		NoiseScale:     c.NoiseScale,
		NoiseAmplitude: c.NoiseAmplitude,
		Octaves:        c.Octaves,
	}
}

// Field samples depth at any world point.
type Field struct {
	p     Params
	noise opensimplex.Noise
	norm  float64
}

// New creates a depth field.
func New(p Params) *Field {
	if p.NoiseScale <= 0 {
		p.NoiseScale = 1
	}
	f := &Field{p: p, noise: opensimplex.New(p.Seed)}
	amp := gain
	for o := 0; o < p.Octaves; o++ {
		f.norm += amp
		amp *= gain
	}
	return f
}

// Params returns the parameters the field was built with.
func (f *Field) Params() Params { return f.p }

// Depth returns the water depth at (x, z). Land returns zero.
func (f *Field) Depth(x, z float64) float64 {
	d := math.Min((f.p.ShoreX-x)*f.p.Slope, f.p.MaxDepth)
	if f.p.NoiseAmplitude != 0 && f.norm > 0 {
		d += f.fbm(x, z) * f.p.NoiseAmplitude
	}
	return math.Max(d, 0)
}

// fbm sums octaves of simplex noise, normalized to [-1, 1].
func (f *Field) fbm(x, z float64) float64 {
	sum := 0.0
	amp := gain
	freq := 1 / f.p.NoiseScale
	for o := 0; o < f.p.Octaves; o++ {
		sum += amp * f.noise.Eval2(x*freq, z*freq)
		freq *= lacunarity
		amp *= gain
	}
	return sum / f.norm
}

// Sample fills a w*h row-major grid with depths over bounds, sampling cell
// centers. Rows run along z.
func (f *Field) Sample(bounds r2.Box, w, h int, dst []float32) []float32 {
	if cap(dst) < w*h {
		dst = make([]float32, w*h)
	}
	dst = dst[:w*h]
	sx := (bounds.Max.X - bounds.Min.X) / float64(w)
	sz := (bounds.Max.Y - bounds.Min.Y) / float64(h)
	for j := 0; j < h; j++ {
		z := bounds.Min.Y + (float64(j)+0.5)*sz
		for i := 0; i < w; i++ {
			x := bounds.Min.X + (float64(i)+0.5)*sx
			dst[j*w+i] = float32(f.Depth(x, z))
		}
	}
	return dst
}
