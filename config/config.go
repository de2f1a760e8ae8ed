// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Simulation SimulationConfig `yaml:"simulation"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Bathymetry BathymetryConfig `yaml:"bathymetry"`
	Emitters   []EmitterConfig  `yaml:"emitters"`
	Observers  []RectConfig     `yaml:"observers"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the initial extent of the sea. The quadtree root is centered
// on the origin and grows if waves leave it.
type WorldConfig struct {
	Size float64 `yaml:"size"`
}

// SimulationConfig holds particle budget and stepping parameters.
type SimulationConfig struct {
	MaxParticles        int     `yaml:"max_particles"`
	MaxParticlesPerLeaf int     `yaml:"max_particles_per_leaf"`
	Prewarm             float64 `yaml:"prewarm"`      // Simulated seconds run before the first frame
	PrewarmStep         float64 `yaml:"prewarm_step"` // Fixed step used while prewarming
	TimeBudgetMS        float64 `yaml:"time_budget_ms"`
	DT                  float64 `yaml:"dt"`
	Seed                int64   `yaml:"seed"`
}

// SchedulerConfig holds update cadences (simulated seconds, scaled by stress)
// and the stress controller constants.
type SchedulerConfig struct {
	VisibleCheapDelay  float64 `yaml:"visible_cheap_delay"`
	VisibleCostlyDelay float64 `yaml:"visible_costly_delay"`
	HiddenCheapDelay   float64 `yaml:"hidden_cheap_delay"`
	HiddenCostlyDelay  float64 `yaml:"hidden_costly_delay"`
	HiddenScanSlots    int     `yaml:"hidden_scan_slots"` // Slots examined per tick in hidden leaves
	StressMin          float64 `yaml:"stress_min"`
	StressMax          float64 `yaml:"stress_max"`
	StressDecay        float64 `yaml:"stress_decay"`
	StressGain         float64 `yaml:"stress_gain"`
}

// BathymetryConfig shapes the procedural sea floor: a shelf rising towards
// shore_x with noise layered on top.
type BathymetryConfig struct {
	Seed           int64   `yaml:"seed"`
	ShoreX         float64 `yaml:"shore_x"`         // Depth reaches zero here
	Slope          float64 `yaml:"slope"`           // Depth gained per unit away from shore
	MaxDepth       float64 `yaml:"max_depth"`       // Open-sea depth cap
	NoiseScale     float64 `yaml:"noise_scale"`     // World units per noise period
	NoiseAmplitude float64 `yaml:"noise_amplitude"` // Depth variation from noise
	Octaves        int     `yaml:"octaves"`
}

// EmitterConfig describes a periodic wave source.
type EmitterConfig struct {
	Name            string  `yaml:"name"`
	X               float64 `yaml:"x"`
	Z               float64 `yaml:"z"`
	DirX            float64 `yaml:"dir_x"`
	DirZ            float64 `yaml:"dir_z"`
	Frequency       float64 `yaml:"frequency"` // Angular wavenumber
	Amplitude       float64 `yaml:"amplitude"`
	Lifetime        float64 `yaml:"lifetime"` // 0 = never fades out
	ShoreWave       bool    `yaml:"shore_wave"`
	CloneCount      int     `yaml:"clone_count"` // Clones on each side of the seed
	Irregularity    float64 `yaml:"irregularity"`
	CenterElevation float64 `yaml:"center_elevation"`
	EdgeElevation   float64 `yaml:"edge_elevation"`
	Interval        float64 `yaml:"interval"` // Seconds between spawns
	Jitter          float64 `yaml:"jitter"`   // Fraction of interval randomized
}

// RectConfig is an axis-aligned world rectangle.
type RectConfig struct {
	MinX float64 `yaml:"min_x"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxZ float64 `yaml:"max_z"`
}

// TelemetryConfig holds statistics output parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Simulated seconds per stats window
	PerfWindow  int     `yaml:"perf_window"`  // Ticks per perf window
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	DT32      float32
	ScreenW32 float32
	ScreenH32 float32
	HalfWorld float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file. Lists are replaced wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.World.Size <= 0:
		return fmt.Errorf("config: world.size must be positive, got %g", c.World.Size)
	case c.Simulation.MaxParticles <= 0:
		return fmt.Errorf("config: simulation.max_particles must be positive, got %d", c.Simulation.MaxParticles)
	case c.Simulation.MaxParticlesPerLeaf <= 0:
		return fmt.Errorf("config: simulation.max_particles_per_leaf must be positive, got %d", c.Simulation.MaxParticlesPerLeaf)
	case c.Simulation.DT <= 0:
		return fmt.Errorf("config: simulation.dt must be positive, got %g", c.Simulation.DT)
	case c.Scheduler.StressMin > c.Scheduler.StressMax:
		return fmt.Errorf("config: scheduler.stress_min %g exceeds stress_max %g", c.Scheduler.StressMin, c.Scheduler.StressMax)
	}
	for i, e := range c.Emitters {
		if e.Frequency <= 0 || e.Amplitude <= 0 {
			return fmt.Errorf("config: emitter %d (%s) needs positive frequency and amplitude", i, e.Name)
		}
		if e.Interval <= 0 {
			return fmt.Errorf("config: emitter %d (%s) needs a positive interval", i, e.Name)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Simulation.DT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.HalfWorld = c.World.Size / 2

	if c.Simulation.PrewarmStep <= 0 {
		c.Simulation.PrewarmStep = 0.1
	}
	if c.Telemetry.PerfWindow <= 0 {
		c.Telemetry.PerfWindow = 120
	}

	for i := range c.Emitters {
		e := &c.Emitters[i]
		if e.DirX == 0 && e.DirZ == 0 {
			e.DirX = 1
		}
		if e.CenterElevation == 0 && e.EdgeElevation == 0 {
			e.CenterElevation, e.EdgeElevation = 1, 1
		}
		if e.Name == "" {
			e.Name = fmt.Sprintf("emitter-%d", i)
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
