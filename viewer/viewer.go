// Package viewer renders the simulation in a raylib window with pan/zoom
// and a small control panel for pausing and changing the step rate.
package viewer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridhaul/camera"
	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/sim"
)

const panelWidth = 220

// Viewer draws world snapshots and tracks playback state. The simulation
// itself is stepped by the caller; PendingSteps converts wall time and the
// selected speed into how many steps to run this frame.
type Viewer struct {
	screenW, screenH int
	cam              *camera.Camera

	paused bool
	speed  float32 // steps per second
	acc    float32
}

// New creates a viewer for the configured screen size.
func New(cfg *config.Config) *Viewer {
	return &Viewer{
		screenW: cfg.Screen.Width,
		screenH: cfg.Screen.Height,
		cam: camera.New(
			float32(cfg.Screen.Width-panelWidth),
			float32(cfg.Screen.Height),
			float32(cfg.Grid.Width*4),
			float32(cfg.Grid.Height*4),
		),
		speed: 10,
	}
}

// PendingSteps returns how many simulation steps to run for a frame of the
// given duration. Returns 0 while paused.
func (v *Viewer) PendingSteps(frameTime float32) int {
	if v.paused {
		return 0
	}
	v.acc += frameTime * v.speed
	steps := int(v.acc)
	v.acc -= float32(steps)
	return steps
}

// Draw handles camera input and renders one frame: the road network, the
// agents and the control panel.
func (v *Viewer) Draw(snap *sim.Snapshot) {
	v.handleInput()

	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	v.drawNetwork(snap)
	v.drawCargos(snap)
	v.drawVehicles(snap)
	v.drawPanel(snap)

	rl.EndDrawing()
}

func (v *Viewer) handleInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0)
	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
}

// node center in world coordinates
func nodeCenter(x, y int) (float32, float32) {
	return float32(x) + 0.5, float32(y) + 0.5
}

func (v *Viewer) toScreen(x, y int) rl.Vector2 {
	wx, wy := nodeCenter(x, y)
	sx, sy := v.cam.WorldToScreen(wx, wy)
	return rl.Vector2{X: sx, Y: sy}
}

func (v *Viewer) drawNetwork(snap *sim.Snapshot) {
	z := v.cam.Zoom
	for _, e := range snap.Edges {
		rl.DrawLineEx(v.toScreen(e.FromX, e.FromY), v.toScreen(e.ToX, e.ToY), 1, rl.LightGray)
	}
	for _, n := range snap.Nodes {
		wx, wy := nodeCenter(n.X, n.Y)
		if !v.cam.IsVisible(wx, wy, 1) {
			continue
		}
		c := v.toScreen(n.X, n.Y)
		switch {
		case n.Charging:
			rl.DrawCircleV(c, z*0.3, rl.Orange)
		case n.Destination:
			rl.DrawCircleV(c, z*0.3, rl.Green)
		default:
			rl.DrawCircleV(c, z*0.12, rl.Gray)
		}
	}
}

func (v *Viewer) drawCargos(snap *sim.Snapshot) {
	size := v.cam.Zoom * 0.35
	for _, c := range snap.Cargos {
		p := v.toScreen(c.X, c.Y)
		rl.DrawRectangleV(
			rl.Vector2{X: p.X - size/2, Y: p.Y - size/2},
			rl.Vector2{X: size, Y: size},
			rl.Brown,
		)
	}
}

func (v *Viewer) drawVehicles(snap *sim.Snapshot) {
	for _, veh := range snap.Vehicles {
		p := v.toScreen(veh.X, veh.Y)
		color := rl.Blue
		if veh.Energy <= 0 {
			color = rl.Red
		} else if veh.Cargos > 0 {
			color = rl.DarkBlue
		}
		// DrawPoly points a vertex to the right at rotation 0; compass
		// headings are clockwise from up.
		rotation := headingDegrees(veh.Heading) - 90
		rl.DrawPoly(p, 3, v.cam.Zoom*0.42, rotation, color)
	}
}

func headingDegrees(h string) float32 {
	switch h {
	case "E":
		return 90
	case "S":
		return 180
	case "W":
		return 270
	default:
		return 0
	}
}

func (v *Viewer) drawPanel(snap *sim.Snapshot) {
	panelX := float32(v.screenW - panelWidth)
	rl.DrawRectangle(int32(panelX)-10, 0, panelWidth+10, int32(v.screenH), rl.Fade(rl.RayWhite, 0.9))
	panelY := float32(10)

	rl.DrawText("Transport Grid", int32(panelX), int32(panelY), 20, rl.DarkGray)
	panelY += 30

	rl.DrawText(fmt.Sprintf("step %d", snap.Step), int32(panelX), int32(panelY), 16, rl.DarkGray)
	panelY += 20
	rl.DrawText(fmt.Sprintf("seed %d", snap.Seed), int32(panelX), int32(panelY), 16, rl.DarkGray)
	panelY += 30

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 90, Height: 30}, pauseLabel(v.paused)) {
		v.paused = !v.paused
	}
	panelY += 45

	rl.DrawText("Speed (steps/s)", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 18
	v.speed = gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 60, Height: 20},
		"1", "60",
		v.speed, 1, 60,
	)
	rl.DrawText(fmt.Sprintf("%.0f", v.speed), int32(panelX+panelWidth-50), int32(panelY+2), 16, rl.DarkGray)
	panelY += 35

	rl.DrawText("wheel: zoom  arrows: pan", int32(panelX), int32(panelY), 12, rl.Gray)
	panelY += 16
	rl.DrawText("home: reset view  space: pause", int32(panelX), int32(panelY), 12, rl.Gray)
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}
