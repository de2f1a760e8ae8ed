package wave

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// minFilterRun is the shortest run of particles worth direction filtering.
const minFilterRun = 4

// Group is an ordered chain of particles from one spawn event, representing a
// single continuous crest. Traversal starts at the head and follows right links.
type Group struct {
	id    uint64
	head  Ref
	arena *Arena

	lastUpdate       float64
	lastCostlyUpdate float64
}

// NewGroup creates an empty group whose update clocks start at time.
func NewGroup(a *Arena, id uint64, time float64) *Group {
	return &Group{
		id:               id,
		arena:            a,
		lastUpdate:       time,
		lastCostlyUpdate: time,
	}
}

// ID returns the group's spawn sequence number.
func (g *Group) ID() uint64 { return g.id }

// Head returns the first particle of the chain, or zero once the group is empty.
func (g *Group) Head() Ref { return g.head }

// Alive reports whether the group still has a live head.
func (g *Group) Alive() bool { return g.arena.Alive(g.head) }

// LastUpdate returns the time of the last cheap update.
func (g *Group) LastUpdate() float64 { return g.lastUpdate }

// LastCostlyUpdate returns the time of the last costly update.
func (g *Group) LastCostlyUpdate() float64 { return g.lastCostlyUpdate }

// Append adds p to the group after tail. A nil tail makes p the head.
func (g *Group) Append(tail, p *Particle) {
	p.group = g
	if tail == nil {
		g.head = p.ref
		return
	}
	Link(tail, p)
}

// Each calls fn for every particle from head to tail until fn returns false.
func (g *Group) Each(fn func(p *Particle) bool) {
	for r := g.head; r != 0; {
		p := g.arena.Get(r)
		next := p.right
		if !fn(p) {
			return
		}
		r = next
	}
}

// ParticleCount returns the number of particles in the chain.
func (g *Group) ParticleCount() int {
	n := 0
	g.Each(func(*Particle) bool {
		n++
		return true
	})
	return n
}

// AnyInside reports whether a live particle of the group satisfies inside.
func (g *Group) AnyInside(inside func(pos r2.Vec) bool) bool {
	found := false
	g.Each(func(p *Particle) bool {
		if p.alive && inside(p.pos) {
			found = true
		}
		return !found
	})
	return found
}

// Update runs the cheap update on every particle with the time elapsed since
// the previous cheap update.
func (g *Group) Update(time float64) {
	dt := time - g.lastUpdate
	g.lastUpdate = time
	step, invStep := Step(dt)

	g.Each(func(p *Particle) bool {
		p.Update(dt, step, invStep)
		return true
	})
}

// CostlyUpdate runs the costly update on every particle, then smooths directions
// along each run between locked endpoints. Once MaxGroupSubdivisions particles
// have been inserted, the remaining particles update without subdividing.
func (g *Group) CostlyUpdate(idx Index, time float64) (int, error) {
	dt := time - g.lastCostlyUpdate
	g.lastCostlyUpdate = time

	total := 0
	for r := g.head; r != 0; {
		p := g.arena.Get(r)
		next := p.right

		var use Index
		if total < MaxGroupSubdivisions {
			use = idx
		}
		n, err := p.CostlyUpdate(use, dt)
		total += n
		if err != nil {
			return total, err
		}
		if p.alive {
			next = p.right
		}
		r = next
	}

	g.filterDirections()
	return total, nil
}

// filterDirections replaces the directions of every run longer than three
// particles with a linear blend between the mean directions of its two halves,
// so a long crest bends coherently instead of following per-particle noise.
func (g *Group) filterDirections() {
	chain := g.arena.scratch[:0]
	g.Each(func(p *Particle) bool {
		chain = append(chain, p)
		return true
	})
	g.arena.scratch = chain[:0]

	start := 0
	for i := 1; i < len(chain); i++ {
		if !chain[i].locked && i != len(chain)-1 {
			continue
		}
		if i-start+1 >= minFilterRun {
			smoothRun(chain[start : i+1])
		}
		start = i
	}
}

func smoothRun(run []*Particle) {
	half := len(run) / 2
	var a, b r2.Vec
	for _, p := range run[:half] {
		a = r2.Add(a, p.dir)
	}
	for _, p := range run[half:] {
		b = r2.Add(b, p.dir)
	}
	a = unit(a, run[0].dir)
	b = unit(b, run[len(run)-1].dir)

	last := float64(len(run) - 1)
	for i, p := range run {
		t := float64(i) / last
		mixed := r2.Add(r2.Scale(1-t, a), r2.Scale(t, b))
		p.dir = unit(mixed, p.dir)
	}
}
