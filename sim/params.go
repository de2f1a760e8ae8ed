package sim

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/config"
)

// Schedule holds the per-leaf update cadences and the stress controller constants.
// All delays are in simulation seconds and are multiplied by the current stress.
type Schedule struct {
	VisibleCheapDelay  float64
	VisibleCostlyDelay float64
	HiddenCheapDelay   float64
	HiddenCostlyDelay  float64

	// HiddenScanSlots is how many slots of a hidden leaf are examined per tick.
	HiddenScanSlots int

	StressMin   float64
	StressMax   float64
	StressDecay float64
	StressGain  float64
}

// Params configures a Simulation.
type Params struct {
	Bounds              r2.Box
	MaxParticles        int
	MaxParticlesPerLeaf int

	// Prewarm is the simulated time advanced before the first real step.
	Prewarm     float64
	PrewarmStep float64

	// TimeBudget is the wall-clock cost one step should stay within.
	TimeBudget time.Duration

	Schedule Schedule
	Seed     int64
}

// DefaultSchedule returns the standard cadences.
func DefaultSchedule() Schedule {
	return Schedule{
		VisibleCheapDelay:  0.01,
		VisibleCostlyDelay: 0.4,
		HiddenCheapDelay:   1.5,
		HiddenCostlyDelay:  8.0,
		HiddenScanSlots:    8,
		StressMin:          1,
		StressMax:          20,
		StressDecay:        0.98,
		StressGain:         0.04,
	}
}

// DefaultParams returns parameters for a 2 km square sea.
func DefaultParams() Params {
	return Params{
		Bounds:              r2.Box{Min: r2.Vec{X: -1000, Y: -1000}, Max: r2.Vec{X: 1000, Y: 1000}},
		MaxParticles:        20000,
		MaxParticlesPerLeaf: 256,
		Prewarm:             40,
		PrewarmStep:         0.1,
		TimeBudget:          2 * time.Millisecond,
		Schedule:            DefaultSchedule(),
		Seed:                1,
	}
}

// ParamsFromConfig builds Params from the loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	half := cfg.World.Size / 2
	sc := cfg.Scheduler
	return Params{
		Bounds:              r2.Box{Min: r2.Vec{X: -half, Y: -half}, Max: r2.Vec{X: half, Y: half}},
		MaxParticles:        cfg.Simulation.MaxParticles,
		MaxParticlesPerLeaf: cfg.Simulation.MaxParticlesPerLeaf,
		Prewarm:             cfg.Simulation.Prewarm,
		PrewarmStep:         cfg.Simulation.PrewarmStep,
		TimeBudget:          time.Duration(cfg.Simulation.TimeBudgetMS * float64(time.Millisecond)),
		Seed:                cfg.Simulation.Seed,
		Schedule: Schedule{
			VisibleCheapDelay:  sc.VisibleCheapDelay,
			VisibleCostlyDelay: sc.VisibleCostlyDelay,
			HiddenCheapDelay:   sc.HiddenCheapDelay,
			HiddenCostlyDelay:  sc.HiddenCostlyDelay,
			HiddenScanSlots:    sc.HiddenScanSlots,
			StressMin:          sc.StressMin,
			StressMax:          sc.StressMax,
			StressDecay:        sc.StressDecay,
			StressGain:         sc.StressGain,
		},
	}
}
