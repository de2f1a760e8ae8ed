package sim

import (
	"math"
	"time"
)

// Clock is the time source used to measure the cost of each step.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Stress is the tree-wide feedback signal that scales update delays. It rises
// while steps overrun the time budget and decays back towards its floor.
type Stress struct {
	value float64
	sched Schedule
	// budgetExp is e^(budget in milliseconds), cached.
	budgetExp float64
}

// NewStress creates a stress controller at its floor.
func NewStress(sched Schedule, budget time.Duration) Stress {
	return Stress{
		value:     sched.StressMin,
		sched:     sched,
		budgetExp: math.Exp(millis(budget)),
	}
}

// Value returns the current stress multiplier.
func (s *Stress) Value() float64 { return s.value }

// Feed folds one measured step duration into the signal:
// stress = stress*decay + (e^duration - e^budget)*gain, clamped to [min, max].
func (s *Stress) Feed(d time.Duration) {
	v := s.value*s.sched.StressDecay + (math.Exp(millis(d))-s.budgetExp)*s.sched.StressGain
	// NaN fails both comparisons and lands on the floor.
	if !(v >= s.sched.StressMin) {
		v = s.sched.StressMin
	}
	if v > s.sched.StressMax {
		v = s.sched.StressMax
	}
	s.value = v
}

// Retune replaces the schedule and budget, keeping the current value within
// the new bounds.
func (s *Stress) Retune(sched Schedule, budget time.Duration) {
	s.sched = sched
	s.budgetExp = math.Exp(millis(budget))
	s.value = math.Min(math.Max(s.value, sched.StressMin), sched.StressMax)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
