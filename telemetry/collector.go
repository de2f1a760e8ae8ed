package telemetry

import (
	"github.com/pthm-cable/swell/sim"
	"github.com/pthm-cable/swell/wave"
)

// Source is the part of the simulation the collector reads.
type Source interface {
	Stats() sim.Stats
	EachParticle(fn func(p *wave.Particle))
}

// Collector turns the simulation's cumulative counters into per-window stats.
type Collector struct {
	windowDurationTicks int32

	windowStartTick int32
	// Cumulative counters at the start of the current window
	base sim.Stats

	amplitudes []float64
	speeds     []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{windowDurationTicks: ticksPerWindow}
}

// Reset starts a new window at tick from the source's current counters, so
// prewarm activity is not attributed to the first window.
func (c *Collector) Reset(tick int32, src Source) {
	c.windowStartTick = tick
	c.base = src.Stats()
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and starts the next window.
func (c *Collector) Flush(currentTick int32, src Source) WindowStats {
	st := src.Stats()

	c.amplitudes = c.amplitudes[:0]
	c.speeds = c.speeds[:0]
	breaking := 0
	src.EachParticle(func(p *wave.Particle) {
		if !p.Alive() {
			return
		}
		c.amplitudes = append(c.amplitudes, p.Amplitude()*p.Fade())
		c.speeds = append(c.speeds, p.Speed())
		if p.TargetEnergyBalance() < 0 {
			breaking++
		}
	})
	amp := Summarize(c.amplitudes)
	speed := Summarize(c.speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      st.Time,

		Particles: st.Particles,
		Groups:    st.Groups,
		Leaves:    st.Leaves,
		FreeSpace: st.FreeSpace,
		Stress:    st.Stress,

		Spawned:       st.TotalSpawned - c.base.TotalSpawned,
		SpawnRejected: st.TotalSpawnRejected - c.base.TotalSpawnRejected,
		Rejected:      st.TotalRejected - c.base.TotalRejected,
		Destroyed:     st.TotalDestroyed - c.base.TotalDestroyed,
		Relocated:     st.TotalRelocated - c.base.TotalRelocated,
		Subdivisions:  st.TotalSubdivisions - c.base.TotalSubdivisions,

		Breaking:      breaking,
		AmplitudeMean: amp.Mean,
		AmplitudeP50:  amp.P50,
		AmplitudeP90:  amp.P90,
		AmplitudeMax:  amp.Max,
		SpeedMean:     speed.Mean,
		SpeedStd:      speed.Std,
	}

	c.windowStartTick = currentTick
	c.base = st
	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
