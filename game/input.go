package game

import rl "github.com/gen2brain/raylib-go/raylib"

const (
	maxStepsPerUpdate = 10
	keyPanPixels      = 8
)

// keyBinding runs action once per press of key.
type keyBinding struct {
	key    int32
	action func(g *Game)
}

var keyBindings = []keyBinding{
	{rl.KeyF11, func(*Game) { rl.ToggleFullscreen() }},
	{rl.KeySpace, func(g *Game) { g.paused = !g.paused }},
	{rl.KeyComma, func(g *Game) { g.stepsPerUpdate = max(g.stepsPerUpdate-1, 1) }},
	{rl.KeyPeriod, func(g *Game) { g.stepsPerUpdate = min(g.stepsPerUpdate+1, maxStepsPerUpdate) }},
	{rl.KeyS, func(g *Game) { g.schedPanel.Toggle() }},
	{rl.KeyP, func(g *Game) { g.showPerf = !g.showPerf }},
	{rl.KeyL, func(g *Game) { g.waves.ShowLeaves = !g.waves.ShowLeaves }},
	{rl.KeyHome, func(g *Game) { g.camera.Reset() }},
	{rl.KeyEqual, func(g *Game) { g.camera.ZoomBy(1.25) }},
	{rl.KeyKpAdd, func(g *Game) { g.camera.ZoomBy(1.25) }},
	{rl.KeyMinus, func(g *Game) { g.camera.ZoomBy(0.8) }},
	{rl.KeyKpSubtract, func(g *Game) { g.camera.ZoomBy(0.8) }},
}

// handleInput processes keyboard and mouse input for one frame.
func (g *Game) handleInput() {
	g.handleResize()

	for _, b := range keyBindings {
		if rl.IsKeyPressed(b.key) {
			b.action(g)
		}
	}

	mouse := rl.GetMousePosition()
	g.inspector.HandleInput(mouse.X, mouse.Y, g.scene, g.camera)

	g.panCamera()
}

// handleResize follows window size changes.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth, g.screenHeight = w, h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-250, 10)
	g.inspector.Resize(int32(w))
}

// panCamera applies held arrow keys, right-button drags and the wheel.
func (g *Game) panCamera() {
	var dx, dy float32
	if rl.IsKeyDown(rl.KeyRight) {
		dx += keyPanPixels
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		dx -= keyPanPixels
	}
	if rl.IsKeyDown(rl.KeyDown) {
		dy += keyPanPixels
	}
	if rl.IsKeyDown(rl.KeyUp) {
		dy -= keyPanPixels
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		dx -= d.X
		dy -= d.Y
	}
	if dx != 0 || dy != 0 {
		g.camera.Pan(dx, dy)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
}
