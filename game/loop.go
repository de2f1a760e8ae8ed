package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/swell/telemetry"
	"github.com/pthm-cable/swell/ui"
)

// step advances the simulation one tick and flushes telemetry when a window
// closes. Phase timing is the caller's tick.
func (g *Game) step() error {
	g.perfCollector.StartPhase(telemetry.PhaseSimulate)
	if err := g.sim.Step(g.dt); err != nil {
		return fmt.Errorf("tick %d: %w", g.tick, err)
	}
	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	return nil
}

// UpdateHeadless runs StepsPerUpdate ticks, timing each as one perf sample.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.perfCollector.StartTick()
		err := g.step()
		g.perfCollector.EndTick()
		if err != nil {
			return err
		}
	}
	return nil
}

// Update handles input and advances the simulation for one frame. In windowed
// mode a perf sample spans the whole frame; Draw closes it.
func (g *Game) Update() error {
	g.perfCollector.StartTick()
	g.perfCollector.RecordFrame()
	g.handleInput()

	if g.paused {
		return nil
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

// Draw renders the frame.
func (g *Game) Draw() {
	g.perfCollector.StartPhase(telemetry.PhaseRender)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 8, G: 16, B: 32, A: 255})

	// The root grows when waves leave it.
	if b := g.sim.Bounds(); b != g.drawnBounds {
		g.depth.Rebuild(g.field, b)
		g.camera.SetWorld(b)
		g.drawnBounds = b
	}
	g.depth.Draw(g.camera)
	g.waves.Draw(g.sim, g.camera)
	g.inspector.DrawMarkers(g.scene, g.camera)

	st := g.sim.Stats()
	g.hud.Draw(ui.HUDData{
		Title:     "Swell",
		Stats:     st,
		StressMax: g.sim.Schedule().StressMax,
		Capacity:  g.cfg.Simulation.MaxParticles,
		Tick:      g.tick,
		Speed:     g.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
	})
	g.inspector.Draw(g.scene)
	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats(), g.sim.TimeBudget())
	}
	if sched, budget, changed := g.schedPanel.Draw(g.sim.Schedule(), g.sim.TimeBudget()); changed {
		g.sim.Retune(sched, budget)
	}
	g.hud.DrawControls(int32(g.screenHeight),
		"SPACE pause | , . speed | arrows pan | wheel zoom | HOME reset | click inspect | S scheduler | P perf | L leaves")

	rl.EndDrawing()
	g.perfCollector.EndTick()
}
