package ui

import (
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swell/sim"
)

// SchedulerPanel exposes the update delays and time budget as sliders.
type SchedulerPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewSchedulerPanel creates a hidden scheduler panel.
func NewSchedulerPanel(x, y, width int32) *SchedulerPanel {
	return &SchedulerPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// Toggle switches panel visibility.
func (p *SchedulerPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the panel is shown.
func (p *SchedulerPanel) IsVisible() bool { return p.visible }

// SetPosition updates the panel position.
func (p *SchedulerPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the sliders and returns the edited schedule and budget, and
// whether anything changed.
func (p *SchedulerPanel) Draw(sched sim.Schedule, budget time.Duration) (sim.Schedule, time.Duration, bool) {
	if !p.visible {
		return sched, budget, false
	}
	r := p.renderer
	r.DrawPanel(p.x, p.y, p.width, 330)

	x := p.x + r.Theme.Pad
	y := p.y + r.Theme.Pad
	w := p.width - 2*r.Theme.Pad
	y = r.DrawSectionHeader(x, y, "Scheduler")

	out := sched
	var v float32

	oldMS := float64(budget) / float64(time.Millisecond)
	v, y = r.DrawSlider(x, y, "Time budget (ms)", "%.2f", float32(oldMS), 0.25, 16, w)
	outBudget := budget
	if v != float32(oldMS) {
		outBudget = time.Duration(float64(v) * float64(time.Millisecond))
	}

	v, y = r.DrawSlider(x, y, "Visible cheap delay", "%.3f", float32(sched.VisibleCheapDelay), 0, 0.2, w)
	out.VisibleCheapDelay = pick(sched.VisibleCheapDelay, v)
	v, y = r.DrawSlider(x, y, "Visible costly delay", "%.2f", float32(sched.VisibleCostlyDelay), 0.05, 2, w)
	out.VisibleCostlyDelay = pick(sched.VisibleCostlyDelay, v)
	v, y = r.DrawSlider(x, y, "Hidden cheap delay", "%.2f", float32(sched.HiddenCheapDelay), 0.1, 5, w)
	out.HiddenCheapDelay = pick(sched.HiddenCheapDelay, v)
	v, y = r.DrawSlider(x, y, "Hidden costly delay", "%.1f", float32(sched.HiddenCostlyDelay), 1, 30, w)
	out.HiddenCostlyDelay = pick(sched.HiddenCostlyDelay, v)
	v, y = r.DrawSlider(x, y, "Stress max", "%.0f", float32(sched.StressMax), float32(sched.StressMin), 50, w)
	out.StressMax = pick(sched.StressMax, v)

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: 120, Height: 24}, "Defaults") {
		out = sim.DefaultSchedule()
		outBudget = sim.DefaultParams().TimeBudget
	}

	return out, outBudget, out != sched || outBudget != budget
}

// pick keeps old unless the float32 slider value moved off it.
func pick(old float64, v float32) float64 {
	if v == float32(old) {
		return old
	}
	return float64(v)
}
