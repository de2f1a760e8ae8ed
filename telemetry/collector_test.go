package telemetry

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/sim"
	"github.com/pthm-cable/swell/wave"
)

func newSim(t *testing.T) *sim.Simulation {
	t.Helper()
	p := sim.DefaultParams()
	p.MaxParticles = 50
	p.MaxParticlesPerLeaf = 16
	p.Prewarm = 0
	s := sim.New(p, wave.DepthFunc(func(x, z float64) float64 { return 100 }))
	s.SetObservers(sim.ObserverFunc(func() []r2.Box { return []r2.Box{p.Bounds} }))
	return s
}

func spawn(t *testing.T, s *sim.Simulation, clones int) {
	t.Helper()
	_, err := s.Spawn(sim.SpawnParams{
		Seed: wave.Seed{
			Direction: r2.Vec{X: 1},
			Frequency: 0.5,
			Amplitude: 0.5,
			Lifetime:  100,
		},
		CloneCount:      clones,
		CenterElevation: 1,
		EdgeElevation:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(1, 0.125)
	if c.WindowDurationTicks() != 8 {
		t.Fatalf("ticks per window = %d, want 8", c.WindowDurationTicks())
	}

	s := newSim(t)
	spawn(t, s, 2)
	c.Reset(0, s)
	spawn(t, s, 1)

	if c.ShouldFlush(7) {
		t.Error("window should not flush before 8 ticks")
	}
	if !c.ShouldFlush(8) {
		t.Error("window should flush at 8 ticks")
	}

	first := c.Flush(8, s)
	if first.Spawned != 3 {
		t.Errorf("spawned = %d, want 3 (spawns before Reset excluded)", first.Spawned)
	}
	if first.Particles != 8 || first.FreeSpace != 42 {
		t.Errorf("particles/free = %d/%d, want 8/42", first.Particles, first.FreeSpace)
	}
	if first.WindowStartTick != 0 || first.WindowEndTick != 8 {
		t.Errorf("window = [%d, %d], want [0, 8]", first.WindowStartTick, first.WindowEndTick)
	}
	if first.Groups != 2 || first.Breaking != 0 {
		t.Errorf("groups/breaking = %d/%d, want 2/0", first.Groups, first.Breaking)
	}

	second := c.Flush(16, s)
	if second.Spawned != 0 {
		t.Errorf("second window spawned = %d, want 0", second.Spawned)
	}
	if second.WindowStartTick != 8 {
		t.Errorf("second window start = %d, want 8", second.WindowStartTick)
	}
}
