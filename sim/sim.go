// Package sim schedules wave groups over a capacity-budgeted quadtree. Each tick
// it updates leaves according to their visibility and a stress signal derived
// from how long previous ticks took, and keeps a render record per particle.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/quadtree"
	"github.com/pthm-cable/swell/wave"
)

// minSpawnWeight keeps edge clones from starting below the survival amplitude.
const minSpawnWeight = 0.05

// cloneSpacing is the lateral distance between clones in wavelengths over 2π.
const cloneSpacing = 1.48

// ErrBadSeed is returned when a spawn seed cannot describe a wave.
var ErrBadSeed = errors.New("sim: invalid spawn seed")

// Observers reports the world rectangles currently being looked at. Leaves
// overlapping any of them are updated at the visible cadence.
type Observers interface {
	ObserverRects() []r2.Box
}

// ObserverFunc adapts a function to Observers.
type ObserverFunc func() []r2.Box

// ObserverRects calls f.
func (f ObserverFunc) ObserverRects() []r2.Box { return f() }

// Plugin is invoked at the start of every tick, including prewarm ticks.
type Plugin interface {
	UpdateWaves(s *Simulation, time, dt float64) error
}

// SpawnParams describes a crest to create: a seed plus its lateral clone profile.
type SpawnParams struct {
	Seed wave.Seed
	// CloneCount is the number of clones on each side of the seed.
	CloneCount   int
	Irregularity float64
	// CenterElevation and EdgeElevation weight amplitude across the crest.
	CenterElevation float64
	EdgeElevation   float64
}

// Stats is a snapshot of simulation counters. Counts prefixed Total are
// cumulative since creation.
type Stats struct {
	Time      float64
	Particles int
	FreeSpace int
	Groups    int
	Leaves    int
	Stress    float64

	TotalSpawned       int
	TotalSpawnRejected int
	TotalRejected      int
	TotalDestroyed     int
	TotalRelocated     int
	TotalSubdivisions  int
}

type counters struct {
	Spawned       int
	SpawnRejected int
	Rejected      int
	Destroyed     int
	Relocated     int
	Subdivisions  int
}

// Simulation owns the particle arena, the quadtree and the scheduler state.
type Simulation struct {
	params    Params
	arena     *wave.Arena
	tree      *tree
	observers Observers
	plugins   []Plugin
	clock     Clock
	rng       *rand.Rand
	stress    Stress

	time      float64
	nextGroup uint64
	prewarmed bool

	passRoot *node
	rects    []r2.Box
	relocate []wave.Ref
	stats    counters
}

// New creates a simulation over the given depth field.
func New(p Params, depth wave.DepthSampler) *Simulation {
	if p.PrewarmStep <= 0 {
		p.PrewarmStep = 0.1
	}
	s := &Simulation{
		params:    p,
		arena:     wave.NewArena(p.MaxParticles, depth),
		clock:     SystemClock{},
		rng:       rand.New(rand.NewSource(p.Seed)),
		stress:    NewStress(p.Schedule, p.TimeBudget),
		nextGroup: 1,
	}
	s.tree = quadtree.New(p.Bounds, p.MaxParticles, p.MaxParticlesPerLeaf, quadtree.Policy[wave.Ref, *leaf]{
		Position: func(r wave.Ref) r2.Vec { return s.arena.Get(r).Position() },
		Destroy: func(r wave.Ref) {
			s.arena.Release(r)
			s.stats.Rejected++
		},
		NewLeaf: func(n *node) *leaf { return newLeaf(n.Slots()) },
		Added: func(n *node, _ int, r wave.Ref) {
			if g := s.arena.Get(r).Group(); g != nil {
				n.Leaf.register(g)
			}
		},
		Removed: func(n *node, slot int, _ wave.Ref) { n.Leaf.clear(slot) },
	})
	return s
}

// Schedule returns the current update schedule.
func (s *Simulation) Schedule() Schedule { return s.params.Schedule }

// TimeBudget returns the per-step time budget.
func (s *Simulation) TimeBudget() time.Duration { return s.params.TimeBudget }

// Retune replaces the schedule and time budget between steps.
func (s *Simulation) Retune(sched Schedule, budget time.Duration) {
	s.params.Schedule = sched
	s.params.TimeBudget = budget
	s.stress.Retune(sched, budget)
}

// SetObservers replaces the observer source. Nil means nothing is visible.
func (s *Simulation) SetObservers(o Observers) { s.observers = o }

// SetClock replaces the clock used for stress measurement.
func (s *Simulation) SetClock(c Clock) { s.clock = c }

// AddPlugin registers p to run at the start of every tick.
func (s *Simulation) AddPlugin(p Plugin) { s.plugins = append(s.plugins, p) }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return s.time }

// Stress returns the current delay multiplier.
func (s *Simulation) Stress() float64 { return s.stress.Value() }

// Rand returns the simulation's seeded random source.
func (s *Simulation) Rand() *rand.Rand { return s.rng }

// Bounds returns the current root extent.
func (s *Simulation) Bounds() r2.Box { return s.tree.Root().Rect }

// FreeSpace returns how many more particles can be stored.
func (s *Simulation) FreeSpace() int { return s.tree.FreeSpace() }

// Spawn creates a group of 2*CloneCount+1 particles laid out perpendicular to
// the seed direction. It returns nil without error when there is not enough free
// space. If insertion stops partway the particles already placed are kept and
// the last one becomes the locked tail.
func (s *Simulation) Spawn(sp SpawnParams) (*wave.Group, error) {
	seed := sp.Seed
	if !(seed.Frequency > 0) || !(seed.Amplitude > 0) || sp.CloneCount < 0 {
		return nil, fmt.Errorf("%w: frequency %g amplitude %g clones %d",
			ErrBadSeed, seed.Frequency, seed.Amplitude, sp.CloneCount)
	}
	n := 2*sp.CloneCount + 1
	if s.tree.FreeSpace() < n || s.arena.Free() < n {
		s.stats.SpawnRejected++
		return nil, nil
	}

	dir := seed.Direction
	if l := r2.Norm(dir); l > 0 {
		dir = r2.Scale(1/l, dir)
	} else {
		dir = r2.Vec{X: 1}
	}
	seed.Direction = dir
	lateral := r2.Scale(cloneSpacing/seed.Frequency, r2.Vec{X: -dir.Y, Y: dir.X})

	g := wave.NewGroup(s.arena, s.nextGroup, s.time)
	s.nextGroup++

	var tail *wave.Particle
	placed := 0
	for i := -sp.CloneCount; i <= sp.CloneCount; i++ {
		clone := seed
		clone.Position = r2.Add(seed.Position, r2.Scale(float64(i), lateral))
		p := s.arena.Spawn(clone, g, tail)
		if p == nil {
			break
		}
		p.SetSpawnWeight(s.cloneWeight(i, sp))
		if tail == nil {
			p.SetLocked(true)
		}
		ok, err := s.tree.Add(p.Ref())
		if err != nil {
			s.stats.Spawned += placed
			return nil, fmt.Errorf("spawn group %d: %w", g.ID(), err)
		}
		if !ok {
			break
		}
		tail = p
		placed++
	}
	s.stats.Spawned += placed
	if tail == nil {
		s.stats.SpawnRejected++
		return nil, nil
	}
	tail.SetLocked(true)
	return g, nil
}

// cloneWeight is a random factor times a cosine falloff from the center
// elevation at i=0 to the edge elevation at the outermost clones.
func (s *Simulation) cloneWeight(i int, sp SpawnParams) float64 {
	t := 0.0
	if sp.CloneCount > 0 {
		t = math.Abs(float64(i)) / float64(sp.CloneCount)
	}
	profile := sp.EdgeElevation + (sp.CenterElevation-sp.EdgeElevation)*math.Cos(t*math.Pi/2)
	jitter := 1 - sp.Irregularity*s.rng.Float64()
	return math.Max(minSpawnWeight, profile*jitter)
}

// Prewarm advances the simulation by the configured prewarm time in fixed
// steps without feeding stress. It runs at most once; Step calls it on the
// first tick if the caller has not.
func (s *Simulation) Prewarm() error {
	if s.prewarmed {
		return nil
	}
	s.prewarmed = true
	dt := s.params.PrewarmStep
	if !(dt > 0) || !(s.params.Prewarm > 0) {
		return nil
	}
	// Counted in whole steps so float drift cannot add an extra one.
	steps := int(math.Ceil(s.params.Prewarm/dt - 1e-9))
	for i := 0; i < steps; i++ {
		if err := s.tick(dt); err != nil {
			return fmt.Errorf("prewarm at %.1fs: %w", s.time, err)
		}
	}
	return nil
}

// Step advances the simulation by dt seconds and feeds the measured wall time
// into the stress signal. An error means the tree hit its depth limit and the
// simulation should stop.
func (s *Simulation) Step(dt float64) error {
	if err := s.Prewarm(); err != nil {
		return err
	}
	start := s.clock.Now()
	err := s.tick(dt)
	s.stress.Feed(s.clock.Now().Sub(start))
	return err
}

func (s *Simulation) tick(dt float64) error {
	s.time += dt
	for _, p := range s.plugins {
		if err := p.UpdateWaves(s, s.time, dt); err != nil {
			return err
		}
	}

	s.rects = s.rects[:0]
	if s.observers != nil {
		s.rects = append(s.rects, s.observers.ObserverRects()...)
	}
	s.relocate = s.relocate[:0]
	s.passRoot = s.tree.Root()

	err := s.updateNode(s.passRoot)
	for _, r := range s.relocate {
		if _, addErr := s.tree.Add(r); addErr != nil && err == nil {
			err = addErr
		}
	}
	s.relocate = s.relocate[:0]
	return err
}

// VisitLeaves calls fn with the bounds and render records of every leaf.
// Records are indexed slot*CornersPerSlot + corner; fn must not retain them.
func (s *Simulation) VisitLeaves(fn func(bounds r2.Box, records []Record)) {
	s.tree.Leaves(func(n *node) {
		fn(n.Rect, n.Leaf.records)
	})
}

// EachParticle calls fn for every particle stored in the tree, alive or
// awaiting recycling.
func (s *Simulation) EachParticle(fn func(p *wave.Particle)) {
	s.tree.Leaves(func(n *node) {
		for slot := 0; slot < n.Slots(); slot++ {
			if r := n.At(slot); r != 0 {
				fn(s.arena.Get(r))
			}
		}
	})
}

// Stats returns the current counters.
func (s *Simulation) Stats() Stats {
	st := Stats{
		Time:               s.time,
		Particles:          s.tree.Len(),
		FreeSpace:          s.tree.FreeSpace(),
		Stress:             s.stress.Value(),
		TotalSpawned:       s.stats.Spawned,
		TotalSpawnRejected: s.stats.SpawnRejected,
		TotalRejected:      s.stats.Rejected,
		TotalDestroyed:     s.stats.Destroyed,
		TotalRelocated:     s.stats.Relocated,
		TotalSubdivisions:  s.stats.Subdivisions,
	}
	seen := make(map[*wave.Group]struct{})
	s.tree.Leaves(func(n *node) {
		st.Leaves++
		for _, g := range n.Leaf.groups {
			if g != nil && g.Alive() {
				seen[g] = struct{}{}
			}
		}
	})
	st.Groups = len(seen)
	return st
}
