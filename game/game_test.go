package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/swell/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.MaxParticles = 2000
	cfg.Simulation.Prewarm = 1
	cfg.Simulation.DT = 0.125
	cfg.Telemetry.StatsWindow = 1
	return cfg
}

func TestHeadlessRunWritesOutput(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGame(testConfig(t), Options{Headless: true, OutputDir: dir, StepsPerUpdate: 4})
	if err != nil {
		t.Fatal(err)
	}

	for g.Tick() < 24 {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	g.Unload()

	if g.Tick() != 24 {
		t.Errorf("tick = %d, want 24", g.Tick())
	}
	if g.Simulation().Stats().TotalSpawned == 0 {
		t.Error("emitters spawned nothing")
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bookmarks.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	// 24 ticks of 0.125s with a 1s window: three rows plus a header.
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Errorf("telemetry rows = %d, want 4:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestOptionsOverrideConfig(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewGame(cfg, Options{Headless: true, Seed: 99, StatsWindowSec: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	if cfg.Simulation.Seed != 99 {
		t.Errorf("seed = %d, want 99", cfg.Simulation.Seed)
	}
	if got := g.collector.WindowDurationTicks(); got != 4 {
		t.Errorf("window ticks = %d, want 4", got)
	}
	if g.stepsPerUpdate != 1 {
		t.Errorf("steps per update = %d, want 1", g.stepsPerUpdate)
	}
	if g.camera != nil {
		t.Error("headless game created a camera")
	}
}

func TestPrewarmExcludedFromFirstWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.Prewarm = 5
	g, err := NewGame(cfg, Options{Headless: true})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	if g.Simulation().Time() < 5-1e-9 {
		t.Fatalf("sim time after prewarm = %v, want >= 5", g.Simulation().Time())
	}
	if g.Simulation().Stats().TotalSpawned == 0 {
		t.Fatal("prewarm spawned nothing")
	}
	if g.tick != 0 {
		t.Errorf("tick after prewarm = %d, want 0", g.tick)
	}

	stats := g.collector.Flush(g.tick, g.sim)
	if stats.Spawned != 0 || stats.Destroyed != 0 {
		t.Errorf("first window counted prewarm: spawned %d destroyed %d", stats.Spawned, stats.Destroyed)
	}
	if stats.Particles == 0 {
		t.Error("expected prewarmed particles in occupancy")
	}
}
