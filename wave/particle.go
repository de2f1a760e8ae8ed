package wave

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/swell/lut"
)

// Seed describes a particle to spawn.
type Seed struct {
	Position  r2.Vec
	Direction r2.Vec
	Frequency float64 // angular wavenumber k, radians per scene unit
	Amplitude float64
	Lifetime  float64
	ShoreWave bool
}

// Particle is one discretized sample of a travelling wave crest.
type Particle struct {
	pos r2.Vec
	dir r2.Vec

	speed       float64
	targetSpeed float64
	baseSpeed   float64

	baseFrequency float64
	frequency     float64

	baseAmplitude float64
	amplitude     float64

	fade                float64
	energyBalance       float64
	targetEnergyBalance float64
	shoaling            float64
	invkh               float64
	targetInvkh         float64
	lifetime            float64

	shoreDamping float64
	spawnWeight  float64

	alive     bool
	locked    bool
	shoreWave bool
	pooled    bool

	left, right Ref
	group       *Group

	ref   Ref
	arena *Arena
}

func (p *Particle) init(s Seed) {
	p.pos = s.Position
	p.dir = unit(s.Direction, r2.Vec{X: 1})
	p.baseFrequency = s.Frequency
	p.frequency = s.Frequency
	p.baseAmplitude = s.Amplitude
	p.amplitude = s.Amplitude
	p.baseSpeed = DeepWaterSpeed(s.Frequency)
	p.speed = p.baseSpeed
	p.targetSpeed = p.baseSpeed
	p.shoaling = 1
	p.lifetime = s.Lifetime
	p.shoreWave = s.ShoreWave
	p.shoreDamping = 1
	p.spawnWeight = 1
	p.alive = true
}

// cloneFrom copies the physical state of src. Links and group are not copied.
func (p *Particle) cloneFrom(src *Particle) {
	ref, arena := p.ref, p.arena
	*p = *src
	p.ref, p.arena = ref, arena
	p.left, p.right = 0, 0
	p.group = nil
	p.locked = false
	p.pooled = false
}

// blend initializes p halfway between a and b.
func (p *Particle) blend(a, b *Particle) {
	p.cloneFrom(a)
	avg := func(x, y float64) float64 { return 0.5 * (x + y) }

	p.pos = r2.Scale(0.5, r2.Add(a.pos, b.pos))
	p.dir = unit(r2.Add(a.dir, b.dir), a.dir)
	p.speed = avg(a.speed, b.speed)
	p.targetSpeed = avg(a.targetSpeed, b.targetSpeed)
	p.baseSpeed = avg(a.baseSpeed, b.baseSpeed)
	p.baseFrequency = avg(a.baseFrequency, b.baseFrequency)
	p.frequency = avg(a.frequency, b.frequency)
	p.baseAmplitude = avg(a.baseAmplitude, b.baseAmplitude)
	p.amplitude = avg(a.amplitude, b.amplitude)
	p.fade = avg(a.fade, b.fade)
	p.energyBalance = avg(a.energyBalance, b.energyBalance)
	p.targetEnergyBalance = avg(a.targetEnergyBalance, b.targetEnergyBalance)
	p.shoaling = avg(a.shoaling, b.shoaling)
	p.invkh = avg(a.invkh, b.invkh)
	p.targetInvkh = avg(a.targetInvkh, b.targetInvkh)
	p.lifetime = avg(a.lifetime, b.lifetime)
	p.shoreDamping = avg(a.shoreDamping, b.shoreDamping)
	p.spawnWeight = avg(a.spawnWeight, b.spawnWeight)
	p.group = a.group
}

// Ref returns the particle's arena slot.
func (p *Particle) Ref() Ref { return p.ref }

// Position returns the location on the simulation plane.
func (p *Particle) Position() r2.Vec { return p.pos }

// Direction returns the unit propagation direction.
func (p *Particle) Direction() r2.Vec { return p.dir }

// Speed returns the current phase speed.
func (p *Particle) Speed() float64 { return p.speed }

// TargetSpeed returns the depth-attenuated speed the particle is blending towards.
func (p *Particle) TargetSpeed() float64 { return p.targetSpeed }

// BaseSpeed returns the deep-water phase speed.
func (p *Particle) BaseSpeed() float64 { return p.baseSpeed }

// Frequency returns the current, shore-attenuated angular wavenumber.
func (p *Particle) Frequency() float64 { return p.frequency }

// BaseFrequency returns the spawn angular wavenumber.
func (p *Particle) BaseFrequency() float64 { return p.baseFrequency }

// Amplitude returns the current amplitude with all modifiers applied.
func (p *Particle) Amplitude() float64 { return p.amplitude }

// BaseAmplitude returns the amplitude before shoaling and modifiers.
func (p *Particle) BaseAmplitude() float64 { return p.baseAmplitude }

// Fade returns the fade-in/out factor in [0, 1].
func (p *Particle) Fade() float64 { return p.fade }

// EnergyBalance returns the current energy balance; negative means losing energy.
func (p *Particle) EnergyBalance() float64 { return p.energyBalance }

// TargetEnergyBalance returns the energy balance being relaxed towards.
func (p *Particle) TargetEnergyBalance() float64 { return p.targetEnergyBalance }

// Shoaling returns the shore amplitude multiplier from the last Update.
func (p *Particle) Shoaling() float64 { return p.shoaling }

// InvKh returns the inverse relative-depth factor.
func (p *Particle) InvKh() float64 { return p.invkh }

// TargetInvKh returns the inverse relative-depth factor computed from depth.
func (p *Particle) TargetInvKh() float64 { return p.targetInvkh }

// Lifetime returns the remaining lifetime. Negative means fading out.
func (p *Particle) Lifetime() float64 { return p.lifetime }

// Alive reports whether the particle has not been destroyed.
func (p *Particle) Alive() bool { return p.alive }

// Locked reports whether the particle is a chain endpoint: locked particles
// neither refract nor subdivide.
func (p *Particle) Locked() bool { return p.locked }

// SetLocked marks or clears the particle as a chain endpoint.
func (p *Particle) SetLocked(v bool) { p.locked = v }

// SetSpawnWeight sets the per-spawn amplitude modifier.
func (p *Particle) SetSpawnWeight(w float64) {
	p.spawnWeight = w
	p.amplitude = p.baseAmplitude * p.shoaling * p.shoreDamping * w
}

// Left returns the left neighbour, or zero.
func (p *Particle) Left() Ref { return p.left }

// Right returns the right neighbour, or zero.
func (p *Particle) Right() Ref { return p.right }

// Group returns the owning group.
func (p *Particle) Group() *Group { return p.group }

// Link makes r the right neighbour of l.
func Link(l, r *Particle) {
	if l != nil {
		l.right = 0
		if r != nil {
			l.right = r.ref
		}
	}
	if r != nil {
		r.left = 0
		if l != nil {
			r.left = l.ref
		}
	}
}

// Destroy kills the particle and splices it out of its chain. The slot stays
// allocated until the arena releases it.
func (p *Particle) Destroy() {
	if !p.alive {
		return
	}
	p.alive = false
	p.amplitude = 0
	p.baseAmplitude = 0

	a := p.arena
	l, r := a.Get(p.left), a.Get(p.right)
	if l != nil {
		l.right = p.right
	}
	if r != nil {
		r.left = p.left
	}
	if p.locked {
		if l != nil && r == nil {
			l.locked = true
		}
		if r != nil && l == nil {
			r.locked = true
		}
	}
	if g := p.group; g != nil && g.head == p.ref {
		g.head = p.right
	}
	p.left, p.right = 0, 0
}

// Update advances fade, energy, speed and position by dt. step and invStep are
// the blend weights from Step(dt).
func (p *Particle) Update(dt, step, invStep float64) {
	if !p.alive {
		return
	}

	if p.lifetime > 0 {
		p.fade = math.Min(1, p.fade+dt*fadeRate)
		p.lifetime -= dt
	} else {
		p.fade = math.Max(0, p.fade-dt*fadeRate)
		if p.fade <= 0 {
			p.Destroy()
			return
		}
	}

	rate := energyGainRate
	if p.targetEnergyBalance < p.energyBalance {
		rate = energyLossRate
	}
	p.energyBalance += (p.targetEnergyBalance - p.energyBalance) * rate * step
	p.baseAmplitude += p.baseAmplitude * p.energyBalance * dt
	if p.baseAmplitude <= MinAmplitude {
		p.Destroy()
		return
	}

	p.speed = invStep*p.speed + step*p.targetSpeed
	p.invkh = invStep*p.invkh + step*p.targetInvkh

	fm, am := lut.Shore(p.invkh)
	p.frequency = p.baseFrequency * fm
	p.shoaling = am
	p.amplitude = p.baseAmplitude * am * p.shoreDamping * p.spawnWeight

	v := p.speed - breakingPush*p.energyBalance
	p.pos = r2.Add(p.pos, r2.Scale(v*dt, p.dir))
}

// CostlyUpdate samples depth, recomputes depth-dependent targets, refracts
// towards the crest normal implied by the neighbours, and subdivides gaps to the
// neighbours into idx. A nil idx disables subdivision. It returns the number of
// particles inserted.
func (p *Particle) CostlyUpdate(idx Index, dt float64) (int, error) {
	if !p.alive {
		return 0, nil
	}
	a := p.arena

	depth := a.depth.Depth(p.pos.X, p.pos.Y)
	if p.baseFrequency < longWaveFrequency {
		ahead := r2.Add(p.pos, r2.Scale(lookAhead/p.baseFrequency, p.dir))
		depth = math.Max(depth, a.depth.Depth(ahead.X, ahead.Y))
	}
	if depth <= DryDepth {
		p.Destroy()
		return 0, nil
	}

	kh := p.baseFrequency * depth
	p.targetInvkh = math.Max(0, 1-0.25*kh)
	p.targetSpeed = math.Max(MinSpeed, p.baseSpeed*lut.SqrtTanh(kh))
	if p.shoreWave {
		p.shoreDamping = lut.Tanh(shoreDampingScale * kh)
	}

	target := 0.0
	if breakingSteepness/p.frequency < p.amplitude {
		target = breakingLoss
	}

	l, r := a.Get(p.left), a.Get(p.right)
	if l != nil && r != nil && !p.locked {
		p.refract(l, r, dt)

		spread := 1 - 0.5*(r2.Dot(p.dir, l.dir)+r2.Dot(p.dir, r.dir))
		target -= expansionLoss * spread
		if l.locked {
			l.targetEnergyBalance = target
		}
		if r.locked {
			r.targetEnergyBalance = target
		}
	}
	p.targetEnergyBalance = target

	if idx == nil || p.locked {
		return 0, nil
	}
	return p.subdivide(idx)
}

// refract turns the direction towards the normal of the chord between l and r.
func (p *Particle) refract(l, r *Particle, dt float64) {
	chord := r2.Sub(r.pos, l.pos)
	normal := r2.Vec{X: chord.Y, Y: -chord.X}
	if r2.Dot(normal, p.dir) < 0 {
		normal = r2.Scale(-1, normal)
	}
	normal = unit(normal, r2.Vec{})
	if normal == (r2.Vec{}) {
		return
	}
	rate := math.Min(refractionRate, refractionRate*dt)
	p.dir = unit(r2.Add(r2.Scale(1-rate, p.dir), r2.Scale(rate, normal)), p.dir)
}

// subdivide inserts a midpoint particle towards each neighbour that is more than
// one wavelength unit and one scene unit away.
func (p *Particle) subdivide(idx Index) (int, error) {
	a := p.arena
	n := 0
	for _, toLeft := range [2]bool{true, false} {
		if idx.FreeSpace() <= 0 {
			break
		}
		nb := a.Get(p.right)
		if toLeft {
			nb = a.Get(p.left)
		}
		if nb == nil || !nb.alive {
			continue
		}
		d := r2.Norm(r2.Sub(nb.pos, p.pos))
		if d*p.frequency <= 1 || d <= 1 {
			continue
		}

		m := a.Alloc()
		if m == nil {
			break
		}
		m.blend(p, nb)
		if toLeft {
			Link(nb, m)
			Link(m, p)
		} else {
			Link(p, m)
			Link(m, nb)
		}

		ok, err := idx.Add(m.ref)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	return n, nil
}
