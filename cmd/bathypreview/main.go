// Bathymetry preview tool - interactive depth field tuning with sliders.
//
// Usage: go run ./cmd/bathypreview [-config path]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swell/bathymetry"
	"github.com/pthm-cable/swell/camera"
	"github.com/pthm-cable/swell/config"
	"github.com/pthm-cable/swell/renderer"
)

const (
	windowWidth  = 1040
	windowHeight = 680
	previewSize  = 640
	panelWidth   = windowWidth - previewSize - 30
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	initial := cfg.Bathymetry
	params := initial

	half := cfg.World.Size / 2
	bounds := r2.Box{Min: r2.Vec{X: -half, Y: -half}, Max: r2.Vec{X: half, Y: half}}

	rl.InitWindow(windowWidth, windowHeight, "Bathymetry Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	cam := camera.New(previewSize, previewSize, bounds)
	depth := renderer.NewDepthRenderer(256, 256)
	defer depth.Unload()

	var field *bathymetry.Field
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			field = bathymetry.New(bathymetry.ParamsFromConfig(params))
			depth.Rebuild(field, bounds)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		depth.Draw(cam)
		rl.DrawRectangleLines(0, 0, previewSize, previewSize, rl.DarkGray)

		// Depth under the cursor
		mouse := rl.GetMousePosition()
		if mouse.X < previewSize && mouse.Y < previewSize {
			wx, wz := cam.ScreenToWorld(mouse.X, mouse.Y)
			rl.DrawText(fmt.Sprintf("(%.0f, %.0f) depth %.2f", wx, wz, field.Depth(float64(wx), float64(wz))),
				10, previewSize+10, 16, rl.DarkGray)
		}

		panelX := float32(previewSize + 20)
		panelY := float32(20)
		rl.DrawText("Bathymetry Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, format string, value, min, max float32) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "", value, min, max,
			)
			rl.DrawText(fmt.Sprintf(format, v), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			if v != value {
				needsRegen = true
			}
			return v
		}

		params.ShoreX = float64(slider("Shore X (zero depth line)", "%.0f", float32(params.ShoreX), float32(-half), float32(half)))
		params.Slope = float64(slider("Slope (depth per unit)", "%.3f", float32(params.Slope), 0.001, 0.5))
		params.MaxDepth = float64(slider("Max depth", "%.0f", float32(params.MaxDepth), 1, 200))
		params.NoiseScale = float64(slider("Noise scale (units per period)", "%.0f", float32(params.NoiseScale), 10, 1000))
		params.NoiseAmplitude = float64(slider("Noise amplitude", "%.1f", float32(params.NoiseAmplitude), 0, 30))
		params.Octaves = int(slider("Octaves", "%.0f", float32(params.Octaves), 1, 8))
		params.Seed = int64(slider("Seed", "%.0f", float32(params.Seed), 0, 9999))

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = initial
			needsRegen = true
		}
		panelY += 45

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := bathymetryYAML(params)
		for _, line := range strings.Split(snippet, "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// bathymetryYAML renders params as a config snippet.
func bathymetryYAML(p config.BathymetryConfig) string {
	data, err := yaml.Marshal(struct {
		Bathymetry config.BathymetryConfig `yaml:"bathymetry"`
	}{p})
	if err != nil {
		return err.Error()
	}
	return strings.TrimSpace(string(data))
}
