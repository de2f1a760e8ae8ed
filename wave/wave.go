// Package wave implements wave particles and the groups that chain them into
// continuous crests.
//
// Particles live in an Arena of fixed capacity and refer to each other by Ref,
// an index into the arena, so recycling a slot never leaves a dangling pointer.
// Physics is split into a cheap kinematic Update run often and a CostlyUpdate
// (depth sampling, refraction, subdivision) run rarely.
package wave

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Ref identifies a particle slot in an Arena. The zero Ref means "no particle".
type Ref uint32

// DepthSampler reports water depth at a point on the simulation plane.
// Positive values are underwater depth; zero or less is dry land.
type DepthSampler interface {
	Depth(x, z float64) float64
}

// DepthFunc adapts a plain function to DepthSampler.
type DepthFunc func(x, z float64) float64

// Depth calls f(x, z).
func (f DepthFunc) Depth(x, z float64) float64 { return f(x, z) }

// Index is the spatial index particles subdivide into.
type Index interface {
	FreeSpace() int
	Add(r Ref) (bool, error)
}

// Physical constants.
const (
	Gravity = 9.81

	// MinAmplitude is the base amplitude below which a particle dies.
	MinAmplitude = 0.01

	// DryDepth is the depth at or below which a particle is on land.
	DryDepth = 0.001

	// MinSpeed floors the depth-attenuated phase speed.
	MinSpeed = 0.5

	// StepRate converts elapsed time to the blend step used by Update.
	StepRate = 30.0

	// MaxGroupSubdivisions bounds subdivisions per group costly update.
	MaxGroupSubdivisions = 30
)

const (
	energyLossRate = 0.005
	energyGainRate = 0.0008

	// breakingPush is the forward surge per unit of lost energy balance.
	breakingPush = 20.0

	// breakingSteepness times wavelength is the tallest stable crest.
	breakingSteepness = 0.135
	breakingLoss      = -1.0
	expansionLoss     = 2.0

	// longWaveFrequency marks waves long enough to feel the bottom ahead of the crest.
	longWaveFrequency = 0.025
	lookAhead         = math.Pi / 2

	shoreDampingScale = 4.0

	refractionRate = 0.6

	fadeRate = 1.0
)

// DeepWaterSpeed returns the phase speed sqrt(g/k) of a deep-water wave with
// angular wavenumber k.
func DeepWaterSpeed(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return math.Sqrt(Gravity / k)
}

// Step returns the blend step and its complement for an elapsed time.
func Step(dt float64) (step, invStep float64) {
	step = math.Min(1, math.Max(0, dt*StepRate))
	return step, 1 - step
}

// unit normalizes v, returning fallback when v has no usable length.
func unit(v, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if !(n > 1e-12) || math.IsInf(n, 0) {
		return fallback
	}
	return r2.Scale(1/n, v)
}
