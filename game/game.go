// Package game wires configuration, bathymetry, the wave simulation, the scene
// and telemetry together, and runs them headless or in a raylib window.
package game

import (
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/bathymetry"
	"github.com/pthm-cable/swell/camera"
	"github.com/pthm-cable/swell/components"
	"github.com/pthm-cable/swell/config"
	"github.com/pthm-cable/swell/inspector"
	"github.com/pthm-cable/swell/renderer"
	"github.com/pthm-cable/swell/scene"
	"github.com/pthm-cable/swell/sim"
	"github.com/pthm-cable/swell/telemetry"
	"github.com/pthm-cable/swell/ui"
)

// bookmarkHistory is the number of windows the bookmark detector remembers.
const bookmarkHistory = 10

// Options configures a Game beyond what the config file holds.
type Options struct {
	Seed           int64 // Overrides simulation.seed when non-zero
	LogStats       bool
	StatsWindowSec float64 // Overrides telemetry.stats_window when positive
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
}

// Game holds the complete run state.
type Game struct {
	cfg   *config.Config
	field *bathymetry.Field
	sim   *sim.Simulation
	scene *scene.Scene

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool

	// Viewer (nil when headless)
	camera       *camera.Camera
	depth        *renderer.DepthRenderer
	waves        *renderer.WaveRenderer
	hud          *ui.HUD
	perfPanel    *ui.PerfPanel
	schedPanel   *ui.SchedulerPanel
	inspector    *inspector.Inspector
	showPerf     bool
	drawnBounds  r2.Box
	screenWidth  float32
	screenHeight float32

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	dt             float64
}

// NewGame builds a game from cfg and prewarms the simulation.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if opts.Seed != 0 {
		cfg.Simulation.Seed = opts.Seed
	}
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              cfg,
		field:            bathymetry.New(bathymetry.ParamsFromConfig(cfg.Bathymetry)),
		scene:            scene.FromConfig(cfg),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:        telemetry.NewCollector(statsWindow, cfg.Simulation.DT),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory, cfg.Scheduler.StressMax),
		logStats:         opts.LogStats,
		stepsPerUpdate:   steps,
		dt:               cfg.Simulation.DT,
	}

	g.sim = sim.New(sim.ParamsFromConfig(cfg), g.field)
	g.sim.AddPlugin(g.scene)
	g.sim.SetObservers(sim.ObserverFunc(g.observerRects))

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	if !opts.Headless {
		g.initViewer()
	}

	start := time.Now()
	if err := g.sim.Prewarm(); err != nil {
		om.Close()
		return nil, fmt.Errorf("prewarm: %w", err)
	}
	st := g.sim.Stats()
	slog.Info("prewarm complete",
		"sim_time", st.Time,
		"particles", st.Particles,
		"groups", st.Groups,
		"elapsed", time.Since(start),
	)
	g.collector.Reset(g.tick, g.sim)

	return g, nil
}

// initViewer creates the camera, renderers and panels. Textures are created
// lazily once the window exists.
func (g *Game) initViewer() {
	g.screenWidth = g.cfg.Derived.ScreenW32
	g.screenHeight = g.cfg.Derived.ScreenH32
	g.camera = camera.New(g.screenWidth, g.screenHeight, g.sim.Bounds())
	g.scene.AddObserver(components.Observer{FollowCamera: true})
	g.scene.FollowCamera(g.camera.Footprint)

	g.depth = renderer.NewDepthRenderer(256, 256)
	g.waves = renderer.NewWaveRenderer(2)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-250, 10)
	g.schedPanel = ui.NewSchedulerPanel(10, 130, 280)
	g.inspector = inspector.NewInspector(int32(g.screenWidth))
}

// observerRects times observer collection as its own perf phase.
func (g *Game) observerRects() []r2.Box {
	g.perfCollector.StartPhase(telemetry.PhaseObservers)
	rects := g.scene.ObserverRects()
	g.perfCollector.StartPhase(telemetry.PhaseSimulate)
	return rects
}

// Tick returns the number of simulation steps taken since prewarm.
func (g *Game) Tick() int32 { return g.tick }

// Simulation returns the underlying simulation.
func (g *Game) Simulation() *sim.Simulation { return g.sim }

// Unload flushes output and frees viewer resources.
func (g *Game) Unload() {
	if g.depth != nil {
		g.depth.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
