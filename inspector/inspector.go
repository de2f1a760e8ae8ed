package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/swell/camera"
	"github.com/pthm-cable/swell/components"
	"github.com/pthm-cable/swell/scene"
)

// Panel dimensions
const (
	PanelWidth   = 320
	PanelPadding = 10
	HeaderHeight = 30

	// pickRadius is the click tolerance around an emitter, in screen pixels.
	pickRadius = 12
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorMarker      = rl.Color{R: 255, G: 200, B: 80, A: 255}
)

// Inspector manages emitter selection and the detail panel.
type Inspector struct {
	selected    ecs.Entity
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector docked to the right edge.
func NewInspector(screenWidth int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth)
	return ins
}

// Resize re-docks the panel after a window resize.
func (ins *Inspector) Resize(screenWidth int32) {
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = 150
}

// HandleInput selects the emitter under a left click.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, sc *scene.Scene, cam *camera.Camera) {
	if rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}

	if ins.hasSelected {
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if int32(mouseX) >= closeX && int32(mouseX) <= closeX+20 &&
			int32(mouseY) >= closeY && int32(mouseY) <= closeY+20 {
			ins.Deselect()
			return
		}
		// Clicks inside the panel are ignored
		if int32(mouseX) >= ins.panelX && int32(mouseX) <= ins.panelX+PanelWidth &&
			int32(mouseY) >= ins.panelY {
			return
		}
	}

	wx, wz := cam.ScreenToWorld(mouseX, mouseY)
	if e, ok := sc.NearestEmitter(float64(wx), float64(wz), float64(pickRadius/cam.Zoom)); ok {
		ins.selected = e
		ins.hasSelected = true
	}
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the currently selected entity.
func (ins *Inspector) Selected() (ecs.Entity, bool) {
	return ins.selected, ins.hasSelected
}

// DrawMarkers outlines every emitter, highlighting the selected one.
func (ins *Inspector) DrawMarkers(sc *scene.Scene, cam *camera.Camera) {
	sc.EachEmitter(func(e ecs.Entity, pos components.Position, heading components.Heading, _ components.Emitter) {
		sx, sy := cam.WorldToScreen(float32(pos.X), float32(pos.Z))
		radius := float32(6)
		if ins.hasSelected && e == ins.selected {
			radius = 9
		}
		rl.DrawCircleLines(int32(sx), int32(sy), radius, ColorMarker)
		rl.DrawLine(int32(sx), int32(sy), int32(sx+float32(heading.X)*16), int32(sy+float32(heading.Z)*16), ColorMarker)
	})
}

// Draw renders the panel for the selected emitter.
func (ins *Inspector) Draw(sc *scene.Scene) {
	if !ins.hasSelected {
		return
	}
	pos, heading, em, ok := sc.EmitterComponents(ins.selected)
	if !ok {
		ins.Deselect()
		return
	}

	fields := ExtractFields(em)
	panelHeight := int32(HeaderHeight + PanelPadding + 22 + 18 + 44 + 8 + len(fields)*18 + PanelPadding)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("EMITTER", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding
	rl.DrawText(em.Name, x, y, 14, ColorHeaderText)
	y += 22

	y += DrawLabel(x, y, "Position", fmt.Sprintf("(%.0f, %.0f)", pos.X, pos.Z), nil)
	y += DrawDirection(x, y, "Heading", heading.X, heading.Z)

	rl.DrawLine(x, y, ins.panelX+PanelWidth-PanelPadding, y, ColorPanelBorder)
	y += 8

	for _, f := range fields {
		y += DrawField(x, y, f)
	}
}
