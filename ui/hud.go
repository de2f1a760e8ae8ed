package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swell/sim"
	"github.com/pthm-cable/swell/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Stats     sim.Stats
	StressMax float64
	Capacity  int
	Tick      int32
	Speed     int
	FPS       int32
	Paused    bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	st := data.Stats

	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Particles: %d/%d | Groups: %d | Leaves: %d", st.Particles, data.Capacity, st.Groups, st.Leaves),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Time: %.1fs | Tick: %d | Speed: %dx | FPS: %d", st.Time, data.Tick, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	y := int32(78)
	y = r.DrawBar(10, y, "Stress", float32(st.Stress), float32(data.StressMax), 0.75, 300)
	r.DrawBar(10, y, "Occupancy", float32(st.Particles), float32(data.Capacity), 0.9, 300)

	if data.Paused {
		rl.DrawText("PAUSED", 10, y+22, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders tick phase timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, budget time.Duration) {
	r := p.renderer
	x, y := p.x, p.y
	r.DrawPanel(x, y, 240, 130)
	x += r.Theme.Pad
	y += r.Theme.Pad

	y = r.DrawSectionHeader(x, y, "Tick Performance")
	y = r.DrawLabelValue(x, y, "Avg", fmt.Sprintf("%s (budget %s)", stats.AvgTickDuration.Round(time.Microsecond), budget))
	y = r.DrawLabelValue(x, y, "Max", stats.MaxTickDuration.Round(time.Microsecond).String())

	for _, phase := range []string{telemetry.PhaseObservers, telemetry.PhaseSimulate, telemetry.PhaseRender} {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, r.Theme.Font, color,
		)
		y += 14
	}
}
