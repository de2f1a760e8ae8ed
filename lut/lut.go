// Package lut provides the precomputed nonlinear tables used by wave particle physics.
//
// All tables hold Size entries and are built once at package initialization from
// closed-form linear wave theory relations. Lookups never allocate.
package lut

import "math"

// Size is the number of entries in every table.
const Size = 2048

const (
	// khRange is the relative depth (k*h) spanned by the shore tables.
	// At k*h = pi a wave is effectively in deep water.
	khRange = math.Pi

	// tanhRange is the argument range of the tanh-based tables.
	// tanh(4) is within 0.07% of 1.
	tanhRange = 4.0

	maxShoaling       = 3.0
	maxFrequencyScale = 4.0
)

var (
	shoreAmplitude [Size]float64
	shoreFrequency [Size]float64
	sqrtTanh       [Size]float64
	tanh           [Size]float64
)

func init() {
	for i := 0; i < Size; i++ {
		x := float64(i) / float64(Size-1)

		kh := x * khRange
		shoreAmplitude[i] = shoalingCoefficient(kh)
		shoreFrequency[i] = wavenumberScale(kh)

		t := math.Tanh(x * tanhRange)
		tanh[i] = t
		sqrtTanh[i] = math.Sqrt(t)
	}
}

// shoalingCoefficient is Green's shoaling coefficient Ks = sqrt(cg0/cg) at relative depth kh.
func shoalingCoefficient(kh float64) float64 {
	if kh <= 0 {
		return maxShoaling
	}
	n := 0.5 * (1 + 2*kh/math.Sinh(2*kh))
	ks := 1 / math.Sqrt(2*n*math.Tanh(kh))
	return math.Min(ks, maxShoaling)
}

// wavenumberScale is k/k0: how much shorter the wave is than its deep-water form.
func wavenumberScale(kh float64) float64 {
	if kh <= 0 {
		return maxFrequencyScale
	}
	return math.Min(1/math.Tanh(kh), maxFrequencyScale)
}

// ShoreIndex maps an inverse relative-depth factor in [0, 1] to a shore table index.
// Deep water (invkh = 0) maps to the top of the table. The result may lie outside
// [0, Size) for extreme inputs; Shore treats those as no attenuation.
func ShoreIndex(invkh float64) int {
	return int(math.Floor(float64(Size-1)*(1-invkh*invkh*invkh) - 0.49))
}

// Shore returns the frequency and amplitude multipliers for the given inverse
// relative-depth factor. Out-of-range indices yield 1 for both.
func Shore(invkh float64) (frequency, amplitude float64) {
	i := ShoreIndex(invkh)
	if i < 0 || i >= Size {
		return 1, 1
	}
	return shoreFrequency[i], shoreAmplitude[i]
}

// SqrtTanh returns sqrt(tanh(x)), the phase speed ratio c/c0 at relative depth x.
func SqrtTanh(x float64) float64 {
	return lookup(&sqrtTanh, x)
}

// Tanh returns tanh(x) for x >= 0.
func Tanh(x float64) float64 {
	return lookup(&tanh, x)
}

func lookup(table *[Size]float64, x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x >= tanhRange {
		return 1
	}
	return table[int(x*(Size-1)/tanhRange)]
}
