package wave

import "fmt"

// Arena owns every particle slot and the free list used to recycle them.
// The slot slice never grows, so *Particle values stay valid until released.
type Arena struct {
	particles []Particle
	free      []Ref
	depth     DepthSampler

	// scratch is reused by group direction filtering.
	scratch []*Particle
}

// NewArena creates an arena with room for capacity particles sampling depth.
func NewArena(capacity int, depth DepthSampler) *Arena {
	a := &Arena{
		particles: make([]Particle, capacity),
		free:      make([]Ref, capacity),
		depth:     depth,
	}
	// Pop order hands out Ref 1 first.
	for i := range a.free {
		a.free[i] = Ref(capacity - i)
		a.particles[i].pooled = true
	}
	return a
}

// Capacity returns the total number of slots.
func (a *Arena) Capacity() int { return len(a.particles) }

// Live returns the number of allocated slots, dead-but-unreleased included.
func (a *Arena) Live() int { return len(a.particles) - len(a.free) }

// Free returns the number of slots available to Alloc.
func (a *Arena) Free() int { return len(a.free) }

// Get returns the particle for r, or nil for the zero Ref.
func (a *Arena) Get(r Ref) *Particle {
	if r == 0 {
		return nil
	}
	return &a.particles[r-1]
}

// Alive reports whether r refers to a live particle.
func (a *Arena) Alive(r Ref) bool {
	p := a.Get(r)
	return p != nil && p.alive
}

// Alloc takes a slot from the free list and returns it reset, or nil when the
// arena is exhausted. The particle is not alive until initialized.
func (a *Arena) Alloc() *Particle {
	n := len(a.free)
	if n == 0 {
		return nil
	}
	r := a.free[n-1]
	a.free = a.free[:n-1]
	p := &a.particles[r-1]
	*p = Particle{ref: r, arena: a}
	return p
}

// Spawn allocates a particle initialized from s and appends it to g after tail.
func (a *Arena) Spawn(s Seed, g *Group, tail *Particle) *Particle {
	p := a.Alloc()
	if p == nil {
		return nil
	}
	p.init(s)
	g.Append(tail, p)
	return p
}

// Release returns r to the free list. A live particle is destroyed first.
// Neighbour links are always cleared.
func (a *Arena) Release(r Ref) {
	p := a.Get(r)
	if p == nil {
		return
	}
	if p.pooled {
		panic(fmt.Sprintf("wave: particle %d released twice", r))
	}
	p.Destroy()
	p.left, p.right = 0, 0
	p.group = nil
	p.pooled = true
	a.free = append(a.free, r)
}
