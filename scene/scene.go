// Package scene hosts the entities that drive the simulation from outside:
// emitters that spawn wave groups and observers that mark regions visible.
package scene

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/components"
	"github.com/pthm-cable/swell/config"
	"github.com/pthm-cable/swell/sim"
	"github.com/pthm-cable/swell/wave"
)

// persistentLifetime stands in for "never fades" on non-shore emitters.
const persistentLifetime = 1e9

// Scene is an ark world of emitters and observers. It is a sim.Plugin and a
// sim.Observers.
type Scene struct {
	world *ecs.World

	emitterMap    *ecs.Map3[components.Position, components.Heading, components.Emitter]
	emitterFilter *ecs.Filter3[components.Position, components.Heading, components.Emitter]
	emitters      *ecs.Map[components.Emitter]

	observerMap    *ecs.Map1[components.Observer]
	observerFilter *ecs.Filter1[components.Observer]

	footprint func() r2.Box
	rects     []r2.Box
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:          world,
		emitterMap:     ecs.NewMap3[components.Position, components.Heading, components.Emitter](world),
		emitterFilter:  ecs.NewFilter3[components.Position, components.Heading, components.Emitter](world),
		emitters:       ecs.NewMap[components.Emitter](world),
		observerMap:    ecs.NewMap1[components.Observer](world),
		observerFilter: ecs.NewFilter1[components.Observer](world),
	}
}

// FromConfig creates a scene with the configured emitters and static observers.
func FromConfig(cfg *config.Config) *Scene {
	s := New()
	for _, ec := range cfg.Emitters {
		s.AddEmitter(
			components.Position{X: ec.X, Z: ec.Z},
			components.Heading{X: ec.DirX, Z: ec.DirZ},
			components.Emitter{
				Name:            ec.Name,
				Frequency:       ec.Frequency,
				Amplitude:       ec.Amplitude,
				Lifetime:        ec.Lifetime,
				ShoreWave:       ec.ShoreWave,
				CloneCount:      ec.CloneCount,
				Irregularity:    ec.Irregularity,
				CenterElevation: ec.CenterElevation,
				EdgeElevation:   ec.EdgeElevation,
				Interval:        ec.Interval,
				Jitter:          ec.Jitter,
			},
		)
	}
	for _, rc := range cfg.Observers {
		s.AddObserver(components.Observer{Rect: r2.Box{
			Min: r2.Vec{X: rc.MinX, Y: rc.MinZ},
			Max: r2.Vec{X: rc.MaxX, Y: rc.MaxZ},
		}})
	}
	return s
}

// AddEmitter creates an emitter entity. Its first spawn happens on the first
// tick at or after e.NextSpawn.
func (s *Scene) AddEmitter(pos components.Position, heading components.Heading, e components.Emitter) ecs.Entity {
	return s.emitterMap.NewEntity(&pos, &heading, &e)
}

// AddObserver creates an observer entity.
func (s *Scene) AddObserver(o components.Observer) ecs.Entity {
	return s.observerMap.NewEntity(&o)
}

// Remove deletes an emitter or observer.
func (s *Scene) Remove(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.world.RemoveEntity(e)
}

// FollowCamera sets the source of the footprint used by FollowCamera
// observers. A nil footprint disables them.
func (s *Scene) FollowCamera(footprint func() r2.Box) {
	s.footprint = footprint
}

// ObserverRects returns the current observer rectangles. The returned slice is
// reused by the next call.
func (s *Scene) ObserverRects() []r2.Box {
	s.rects = s.rects[:0]
	query := s.observerFilter.Query()
	for query.Next() {
		o := query.Get()
		if o.FollowCamera {
			if s.footprint == nil {
				continue
			}
			o.Rect = s.footprint()
		}
		s.rects = append(s.rects, o.Rect)
	}
	return s.rects
}

// UpdateWaves spawns a group from every emitter whose timer has elapsed.
func (s *Scene) UpdateWaves(sm *sim.Simulation, time, dt float64) error {
	rng := sm.Rand()
	query := s.emitterFilter.Query()
	for query.Next() {
		pos, heading, e := query.Get()
		if time < e.NextSpawn {
			continue
		}

		g, err := sm.Spawn(sim.SpawnParams{
			Seed:            seedFor(pos, heading, e),
			CloneCount:      e.CloneCount,
			Irregularity:    e.Irregularity,
			CenterElevation: e.CenterElevation,
			EdgeElevation:   e.EdgeElevation,
		})
		if err != nil {
			query.Close()
			return err
		}

		if g == nil {
			e.Rejected++
			if !e.Warned {
				slog.Warn("spawn rejected",
					"emitter", e.Name,
					"free_space", sm.FreeSpace(),
					"time", time,
				)
				e.Warned = true
			}
		} else {
			e.Spawned++
			e.Warned = false
		}

		next := e.Interval
		if e.Jitter > 0 {
			next *= 1 + e.Jitter*(2*rng.Float64()-1)
		}
		e.NextSpawn = time + math.Max(next, dt)
	}
	return nil
}

func seedFor(pos *components.Position, heading *components.Heading, e *components.Emitter) wave.Seed {
	lifetime := e.Lifetime
	if lifetime <= 0 {
		lifetime = persistentLifetime
	}
	return wave.Seed{
		Position:  r2.Vec{X: pos.X, Y: pos.Z},
		Direction: r2.Vec{X: heading.X, Y: heading.Z},
		Frequency: e.Frequency,
		Amplitude: e.Amplitude,
		Lifetime:  lifetime,
		ShoreWave: e.ShoreWave,
	}
}

// EachEmitter calls fn for every emitter.
func (s *Scene) EachEmitter(fn func(ent ecs.Entity, pos components.Position, heading components.Heading, e components.Emitter)) {
	query := s.emitterFilter.Query()
	for query.Next() {
		pos, heading, e := query.Get()
		fn(query.Entity(), *pos, *heading, *e)
	}
}

// Emitter returns the emitter component of entity e, or nil.
func (s *Scene) Emitter(e ecs.Entity) *components.Emitter {
	if !s.world.Alive(e) || !s.emitters.Has(e) {
		return nil
	}
	return s.emitters.Get(e)
}

// EmitterComponents returns all components of emitter e, or ok=false.
func (s *Scene) EmitterComponents(e ecs.Entity) (pos *components.Position, heading *components.Heading, em *components.Emitter, ok bool) {
	if !s.world.Alive(e) || !s.emitters.Has(e) {
		return nil, nil, nil, false
	}
	pos, heading, em = s.emitterMap.Get(e)
	return pos, heading, em, true
}

// NearestEmitter returns the emitter closest to (x, z) within radius.
func (s *Scene) NearestEmitter(x, z, radius float64) (ecs.Entity, bool) {
	var best ecs.Entity
	found := false
	bestD := radius * radius
	query := s.emitterFilter.Query()
	for query.Next() {
		pos, _, _ := query.Get()
		dx, dz := pos.X-x, pos.Z-z
		if d := dx*dx + dz*dz; d <= bestD {
			best, bestD, found = query.Entity(), d, true
		}
	}
	return best, found
}
