package sim

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/quadtree"
	"github.com/pthm-cable/swell/wave"
)

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

type pluginFunc func(s *Simulation, time, dt float64) error

func (f pluginFunc) UpdateWaves(s *Simulation, time, dt float64) error { return f(s, time, dt) }

func testParams() Params {
	p := DefaultParams()
	p.Bounds = r2.Box{Min: r2.Vec{X: -500, Y: -500}, Max: r2.Vec{X: 500, Y: 500}}
	p.MaxParticles = 200
	p.MaxParticlesPerLeaf = 32
	p.Prewarm = 0
	return p
}

func newTestSim(p Params, depth float64, visible bool) *Simulation {
	s := New(p, wave.DepthFunc(func(x, z float64) float64 { return depth }))
	s.SetClock(&fakeClock{})
	if visible {
		s.SetObservers(ObserverFunc(func() []r2.Box {
			return []r2.Box{{Min: r2.Vec{X: -1e6, Y: -1e6}, Max: r2.Vec{X: 1e6, Y: 1e6}}}
		}))
	}
	return s
}

func single(x, z, freq float64) SpawnParams {
	return SpawnParams{
		Seed: wave.Seed{
			Position:  r2.Vec{X: x, Y: z},
			Direction: r2.Vec{X: 1},
			Frequency: freq,
			Amplitude: 1,
			Lifetime:  1000,
		},
		CenterElevation: 1,
		EdgeElevation:   1,
	}
}

func mustSpawn(t *testing.T, s *Simulation, sp SpawnParams) *wave.Group {
	t.Helper()
	g, err := s.Spawn(sp)
	if err != nil {
		t.Fatal(err)
	}
	if g == nil {
		t.Fatal("spawn rejected")
	}
	return g
}

func particles(s *Simulation) []*wave.Particle {
	var ps []*wave.Particle
	s.EachParticle(func(p *wave.Particle) { ps = append(ps, p) })
	return ps
}

func filledSlots(s *Simulation) int {
	n := 0
	s.VisitLeaves(func(_ r2.Box, records []Record) {
		for i := 0; i < len(records); i += CornersPerSlot {
			if !records[i].Empty() {
				n++
			}
		}
	})
	return n
}

func TestDeepWaterParticleTravelsAtBaseSpeed(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	mustSpawn(t, s, single(0, 0, 0.05))

	for i := 0; i < 100; i++ {
		if err := s.Step(0.016); err != nil {
			t.Fatal(err)
		}
	}

	ps := particles(s)
	if len(ps) != 1 {
		t.Fatalf("got %d particles, want 1", len(ps))
	}
	p := ps[0]
	if !p.Alive() {
		t.Fatal("deep water particle died")
	}
	if p.TargetInvKh() != 0 {
		t.Errorf("target invkh = %v, want 0", p.TargetInvKh())
	}
	want := p.BaseSpeed() * 1.6
	if math.Abs(p.Position().X-want) > want*0.02 {
		t.Errorf("x = %v, want about %v", p.Position().X, want)
	}
	if s.Stress() != 1 {
		t.Errorf("stress = %v, want 1", s.Stress())
	}
}

func TestDryParticleIsRecycled(t *testing.T) {
	p := testParams()
	s := newTestSim(p, 0, true)
	mustSpawn(t, s, single(0, 0, 0.05))

	for i := 0; i < 30; i++ {
		if err := s.Step(0.016); err != nil {
			t.Fatal(err)
		}
	}

	st := s.Stats()
	if st.TotalDestroyed != 1 {
		t.Errorf("destroyed = %d, want 1", st.TotalDestroyed)
	}
	if st.Particles != 0 || st.FreeSpace != p.MaxParticles {
		t.Errorf("particles = %d free = %d, want 0 and %d", st.Particles, st.FreeSpace, p.MaxParticles)
	}
	if st.Groups != 0 {
		t.Errorf("groups = %d, want 0", st.Groups)
	}
	if n := filledSlots(s); n != 0 {
		t.Errorf("%d records still filled", n)
	}
}

func TestSpawn(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		spawn    SpawnParams
		wantN    int
	}{
		{"single", 10, single(0, 0, 0.5), 1},
		{"clones", 10, func() SpawnParams { sp := single(0, 0, 0.5); sp.CloneCount = 2; return sp }(), 5},
		{"no space", 5, func() SpawnParams { sp := single(0, 0, 0.5); sp.CloneCount = 3; return sp }(), 0},
		{"nan position", 10, single(math.NaN(), 0, 0.5), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.MaxParticles = tt.capacity
			s := newTestSim(p, 100, true)

			g, err := s.Spawn(tt.spawn)
			if err != nil {
				t.Fatal(err)
			}
			got := 0
			if g != nil {
				got = g.ParticleCount()
			}
			if got != tt.wantN {
				t.Errorf("placed %d particles, want %d", got, tt.wantN)
			}
			if s.FreeSpace() != tt.capacity-tt.wantN {
				t.Errorf("free space = %d, want %d", s.FreeSpace(), tt.capacity-tt.wantN)
			}
			if tt.wantN == 0 && s.Stats().TotalSpawnRejected != 1 {
				t.Errorf("spawn rejections = %d, want 1", s.Stats().TotalSpawnRejected)
			}
		})
	}
}

func TestSpawnRejectsBadSeed(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	_, err := s.Spawn(single(0, 0, 0))
	if !errors.Is(err, ErrBadSeed) {
		t.Errorf("err = %v, want ErrBadSeed", err)
	}
}

func TestSpawnCloneProfile(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	sp := single(0, 0, 0.5)
	sp.CloneCount = 2
	sp.EdgeElevation = 0.2
	g := mustSpawn(t, s, sp)

	var chain []*wave.Particle
	g.Each(func(p *wave.Particle) bool {
		chain = append(chain, p)
		return true
	})
	if len(chain) != 5 {
		t.Fatalf("chain length = %d, want 5", len(chain))
	}
	for i, p := range chain {
		wantLocked := i == 0 || i == len(chain)-1
		if p.Locked() != wantLocked {
			t.Errorf("particle %d locked = %v, want %v", i, p.Locked(), wantLocked)
		}
	}
	for i := 1; i < len(chain); i++ {
		d := r2.Norm(r2.Sub(chain[i].Position(), chain[i-1].Position()))
		if math.Abs(d-cloneSpacing/0.5) > 1e-9 {
			t.Errorf("spacing %d = %v, want %v", i, d, cloneSpacing/0.5)
		}
	}
	if !(chain[2].Amplitude() > chain[1].Amplitude() && chain[1].Amplitude() > chain[0].Amplitude()) {
		t.Errorf("amplitudes should fall off from the center: %v %v %v",
			chain[0].Amplitude(), chain[1].Amplitude(), chain[2].Amplitude())
	}
	if math.Abs(chain[0].Amplitude()-chain[4].Amplitude()) > 1e-12 {
		t.Errorf("edge amplitudes differ: %v %v", chain[0].Amplitude(), chain[4].Amplitude())
	}
}

func TestStressFeed(t *testing.T) {
	sched := DefaultSchedule()
	tests := []struct {
		name   string
		budget time.Duration
		feed   time.Duration
		want   float64
	}{
		{"under budget stays at floor", 2 * time.Millisecond, 0, 1},
		{"large overrun clamps", 2 * time.Millisecond, 50 * time.Millisecond, 20},
		{"infinite overrun clamps", 2 * time.Millisecond, time.Hour, 20},
		{"nan lands on floor", time.Duration(math.MaxInt64), time.Duration(math.MaxInt64), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStress(sched, tt.budget)
			s.Feed(tt.feed)
			if s.Value() != tt.want {
				t.Errorf("stress = %v, want %v", s.Value(), tt.want)
			}
		})
	}
}

func TestStressRisesAndDecays(t *testing.T) {
	s := NewStress(DefaultSchedule(), 2*time.Millisecond)
	s.Feed(4 * time.Millisecond)
	// 0.98 + (e^4 - e^2) * 0.04
	want := 0.98 + (math.Exp(4)-math.Exp(2))*0.04
	if math.Abs(s.Value()-want) > 1e-9 {
		t.Fatalf("stress = %v, want %v", s.Value(), want)
	}
	prev := s.Value()
	for i := 0; i < 200; i++ {
		s.Feed(2 * time.Millisecond)
		if s.Value() > prev {
			t.Fatalf("stress rose at budget: %v -> %v", prev, s.Value())
		}
		prev = s.Value()
	}
	if math.Abs(s.Value()-1) > 0.05 {
		t.Errorf("stress = %v, want near 1 after decay", s.Value())
	}
}

func TestStepFeedsStress(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	s.SetClock(&fakeClock{step: 50 * time.Millisecond})
	if err := s.Step(0.016); err != nil {
		t.Fatal(err)
	}
	if s.Stress() != 20 {
		t.Errorf("stress = %v, want 20", s.Stress())
	}

	sched := s.Schedule()
	sched.StressMax = 5
	s.Retune(sched, 100*time.Millisecond)
	if s.Stress() != 5 {
		t.Errorf("stress after retune = %v, want 5", s.Stress())
	}
	if s.TimeBudget() != 100*time.Millisecond {
		t.Errorf("budget = %v", s.TimeBudget())
	}
	// 50ms steps are now well inside budget.
	if err := s.Step(0.016); err != nil {
		t.Fatal(err)
	}
	if s.Stress() >= 5 {
		t.Errorf("stress = %v, want below 5 under budget", s.Stress())
	}
}

func TestHiddenLeafScansWindow(t *testing.T) {
	s := newTestSim(testParams(), 100, false)
	sp := single(0, 0, 0.5)
	sp.CloneCount = 7
	mustSpawn(t, s, sp)

	want := []int{8, 15, 15}
	for i, w := range want {
		if err := s.Step(0.016); err != nil {
			t.Fatal(err)
		}
		if got := filledSlots(s); got != w {
			t.Errorf("after step %d: %d records, want %d", i+1, got, w)
		}
	}
}

func TestOneCostlyUpdatePerLeafPerTick(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	g1 := mustSpawn(t, s, single(0, 0, 0.05))
	g2 := mustSpawn(t, s, single(0, 50, 0.05))

	if err := s.Step(0.5); err != nil {
		t.Fatal(err)
	}
	if g1.LastCostlyUpdate() != 0.5 || g2.LastCostlyUpdate() != 0 {
		t.Fatalf("costly times = %v, %v; want 0.5, 0", g1.LastCostlyUpdate(), g2.LastCostlyUpdate())
	}
	if g2.LastUpdate() != 0.5 {
		t.Errorf("cheap updates should not be limited; g2 last update = %v", g2.LastUpdate())
	}

	if err := s.Step(0.01); err != nil {
		t.Fatal(err)
	}
	if math.Abs(g2.LastCostlyUpdate()-0.51) > 1e-9 {
		t.Errorf("g2 costly time = %v, want 0.51", g2.LastCostlyUpdate())
	}
	if g1.LastCostlyUpdate() != 0.5 {
		t.Errorf("g1 costly time = %v, want 0.5", g1.LastCostlyUpdate())
	}
}

func TestRelocationGrowsRoot(t *testing.T) {
	p := testParams()
	p.Bounds = r2.Box{Min: r2.Vec{X: -10, Y: -10}, Max: r2.Vec{X: 10, Y: 10}}
	s := newTestSim(p, 100, true)
	mustSpawn(t, s, single(5, 0, 0.05))

	for i := 0; i < 6; i++ {
		if err := s.Step(0.1); err != nil {
			t.Fatal(err)
		}
	}

	st := s.Stats()
	if st.TotalRelocated == 0 {
		t.Fatal("particle left the root but was never relocated")
	}
	if st.Particles != 1 {
		t.Fatalf("particles = %d, want 1", st.Particles)
	}
	b := s.Bounds()
	pos := particles(s)[0].Position()
	if pos.X < b.Min.X || pos.X > b.Max.X {
		t.Errorf("root %v does not contain particle at %v", b, pos)
	}
	if filledSlots(s) != 1 {
		t.Errorf("relocated particle should have a record")
	}
}

func TestRecordMatchesParticle(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	mustSpawn(t, s, single(3, 4, 0.25))
	if err := s.Step(0.016); err != nil {
		t.Fatal(err)
	}

	p := particles(s)[0]
	var rec Record
	found := 0
	s.VisitLeaves(func(_ r2.Box, records []Record) {
		for i := 0; i < len(records); i += CornersPerSlot {
			if records[i].Empty() {
				continue
			}
			found++
			rec = records[i]
			for c := 1; c < CornersPerSlot; c++ {
				if records[i+c] != rec {
					t.Errorf("corner %d differs from corner 0", c)
				}
			}
		}
	})
	if found != 1 {
		t.Fatalf("found %d records, want 1", found)
	}

	wavelength := 2 * math.Pi / p.Frequency()
	want := Record{
		X:         float32(p.Position().X),
		Z:         float32(p.Position().Y),
		Amplitude: float32(p.Amplitude() * p.Fade()),
		DirX:      float32(p.Direction().X * wavelength),
		DirZ:      float32(p.Direction().Y * wavelength),
		Shoaling:  float32(p.Shoaling()),
		Speed:     float32(p.Speed()),
	}
	if rec != want {
		t.Errorf("record = %+v, want %+v", rec, want)
	}
}

func TestPrewarmRunsPluginsWithoutStress(t *testing.T) {
	p := testParams()
	p.Prewarm = 0.95
	s := newTestSim(p, 100, true)
	s.SetClock(&fakeClock{step: 50 * time.Millisecond})

	calls := 0
	s.AddPlugin(pluginFunc(func(*Simulation, float64, float64) error {
		calls++
		return nil
	}))

	if err := s.Prewarm(); err != nil {
		t.Fatal(err)
	}
	if err := s.Prewarm(); err != nil {
		t.Fatal(err)
	}
	if calls != 10 {
		t.Errorf("plugin ran %d times during prewarm, want 10", calls)
	}
	if s.Stress() != 1 {
		t.Errorf("prewarm fed stress: %v", s.Stress())
	}
	if math.Abs(s.Time()-1) > 1e-9 {
		t.Errorf("time = %v, want 1", s.Time())
	}

	if err := s.Step(0.016); err != nil {
		t.Fatal(err)
	}
	if calls != 11 {
		t.Errorf("plugin ran %d times, want 11", calls)
	}
}

func TestPrewarmStepCount(t *testing.T) {
	tests := []struct {
		name    string
		prewarm float64
		want    int
	}{
		{"none", 0, 0},
		{"short", 0.3, 3},
		{"one second", 1.0, 10},
		{"partial step", 0.95, 10},
		{"long", 40, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.Prewarm = tt.prewarm
			p.PrewarmStep = 0.1
			s := newTestSim(p, 100, true)

			calls := 0
			s.AddPlugin(pluginFunc(func(*Simulation, float64, float64) error {
				calls++
				return nil
			}))
			if err := s.Prewarm(); err != nil {
				t.Fatal(err)
			}
			if calls != tt.want {
				t.Errorf("prewarm ran %d steps, want %d", calls, tt.want)
			}
			if want := float64(tt.want) * 0.1; math.Abs(s.Time()-want) > 1e-6 {
				t.Errorf("time = %v, want %v", s.Time(), want)
			}
		})
	}
}

func TestSpawnDepthLimitCountsPlaced(t *testing.T) {
	p := testParams()
	p.MaxParticlesPerLeaf = 1
	s := newTestSim(p, 100, true)

	// The left clone sits just below x=0 and gets its own quadrant on the first
	// split; the other two share a leaf all the way down to the depth limit.
	sp := single(0, 0, 1e300)
	sp.CloneCount = 1
	g, err := s.Spawn(sp)
	if !errors.Is(err, quadtree.ErrDepthLimit) {
		t.Fatalf("err = %v, want depth limit", err)
	}
	if g != nil {
		t.Error("expected no group on error")
	}
	if got := s.Stats().TotalSpawned; got != 2 {
		t.Errorf("spawned = %d, want 2 particles placed before the failure", got)
	}
}

func TestPluginErrorStopsStep(t *testing.T) {
	s := newTestSim(testParams(), 100, true)
	boom := errors.New("boom")
	s.AddPlugin(pluginFunc(func(*Simulation, float64, float64) error { return boom }))
	if err := s.Step(0.016); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestBudgetInvariantUnderLoad(t *testing.T) {
	p := testParams()
	p.MaxParticles = 120
	p.MaxParticlesPerLeaf = 8
	s := newTestSim(p, 20, true)

	for tick := 0; tick < 200; tick++ {
		if tick%5 == 0 {
			sp := single(s.Rand().Float64()*400-200, s.Rand().Float64()*400-200, 0.1+s.Rand().Float64())
			sp.CloneCount = s.Rand().Intn(4)
			sp.Irregularity = 0.5
			if _, err := s.Spawn(sp); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Step(0.05); err != nil {
			t.Fatal(err)
		}

		st := s.Stats()
		if st.Particles+st.FreeSpace != p.MaxParticles {
			t.Fatalf("tick %d: %d stored + %d free != %d", tick, st.Particles, st.FreeSpace, p.MaxParticles)
		}
		if n := len(particles(s)); n != st.Particles {
			t.Fatalf("tick %d: walked %d particles, tree reports %d", tick, n, st.Particles)
		}
	}
}
