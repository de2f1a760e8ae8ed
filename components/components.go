// Package components defines ECS components for scene entities.
//
// Fields carry `inspect` tags read by the inspector panel.
package components

import "gonum.org/v1/gonum/spatial/r2"

// Position is a point on the simulation plane.
type Position struct {
	X, Z float64
}

// Heading is the unit direction an emitter launches waves in.
type Heading struct {
	X, Z float64
}

// Emitter periodically spawns wave groups at its position.
type Emitter struct {
	Name      string  `inspect:"skip"`
	Frequency float64 `inspect:"label,fmt:%.3f"` // wavenumber, radians per scene unit
	Amplitude float64 `inspect:"bar,max:3"`
	Lifetime  float64 `inspect:"label,fmt:%.0f"`
	ShoreWave bool

	CloneCount      int
	Irregularity    float64 `inspect:"bar,max:1"`
	CenterElevation float64 `inspect:"bar,max:1"`
	EdgeElevation   float64 `inspect:"bar,max:1"`

	Interval float64 `inspect:"label,fmt:%.1fs"` // seconds between spawns
	Jitter   float64 `inspect:"bar,max:1"`       // fraction of Interval

	// Runtime state
	NextSpawn float64 `inspect:"label,fmt:%.1fs"`
	Spawned   int
	Rejected  int
	Warned    bool `inspect:"skip"` // a rejection has already been logged
}

// Observer is a region the scheduler treats as visible.
type Observer struct {
	Rect         r2.Box
	FollowCamera bool // Rect tracks the camera footprint
}
