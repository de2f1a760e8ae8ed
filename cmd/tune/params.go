package main

import (
	"github.com/pthm-cable/swell/config"
)

// ParamSpec defines a single tunable scheduler parameter.
type ParamSpec struct {
	Name    string  // Column name in the tuning log
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the scheduler parameter set. Defaults match the
// stock scheduler section.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "visible_cheap_delay", Path: "scheduler.visible_cheap_delay", Min: 0.005, Max: 0.1, Default: 0.01},
			{Name: "visible_costly_delay", Path: "scheduler.visible_costly_delay", Min: 0.1, Max: 2.0, Default: 0.4},
			{Name: "hidden_cheap_delay", Path: "scheduler.hidden_cheap_delay", Min: 0.5, Max: 5.0, Default: 1.5},
			{Name: "hidden_costly_delay", Path: "scheduler.hidden_costly_delay", Min: 2.0, Max: 30.0, Default: 8.0},
			{Name: "stress_max", Path: "scheduler.stress_max", Min: 2.0, Max: 50.0, Default: 20.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values into [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize maps [0,1] values back to raw values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp limits every value to its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg. Order matches Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Scheduler.VisibleCheapDelay = c[0]
	cfg.Scheduler.VisibleCostlyDelay = c[1]
	cfg.Scheduler.HiddenCheapDelay = c[2]
	cfg.Scheduler.HiddenCostlyDelay = c[3]
	cfg.Scheduler.StressMax = max(c[4], cfg.Scheduler.StressMin)
}

// ExtractFromConfig reads the current values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Scheduler.VisibleCheapDelay,
		cfg.Scheduler.VisibleCostlyDelay,
		cfg.Scheduler.HiddenCheapDelay,
		cfg.Scheduler.HiddenCostlyDelay,
		cfg.Scheduler.StressMax,
	}
}

// Lag is the mean ratio of the configured delays to their defaults. Values
// above 1 mean leaves are refreshed less often than stock.
func (pv *ParamVector) Lag(values []float64) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		sum += values[i] / pv.Specs[i].Default
	}
	return sum / 4
}
