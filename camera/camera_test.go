package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	// Should be centered on world
	if cam.X != 20 || cam.Y != 20 {
		t.Errorf("expected camera at (20, 20), got (%f, %f)", cam.X, cam.Y)
	}
	// Fitted zoom is min(1280/40, 720/40) = 18
	if cam.Zoom != 18 {
		t.Errorf("expected zoom 18, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(20, 20)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	// Test roundtrip at various positions
	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClamps(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	// Panning far left should stop at the world edge, not wrap
	cam.Pan(-100000, 0)

	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	fit := float32(18)
	if cam.MinZoom != fit/2 {
		t.Errorf("expected MinZoom %f, got %f", fit/2, cam.MinZoom)
	}

	cam.SetZoom(1) // Below min
	if cam.Zoom != fit/2 {
		t.Errorf("expected zoom clamped to %f, got %f", fit/2, cam.Zoom)
	}

	cam.SetZoom(1000) // Above max
	if cam.Zoom != fit*8 {
		t.Errorf("expected zoom clamped to %f, got %f", fit*8, cam.Zoom)
	}
}

func TestZoomByCompounds(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	start := cam.Zoom
	cam.ZoomBy(2)
	if math.Abs(float64(cam.Zoom-start*2)) > 0.001 {
		t.Errorf("expected zoom %f, got %f", start*2, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 40, 40)

	// Point at camera center should be visible
	if !cam.IsVisible(20, 20, 1) {
		t.Error("center should be visible")
	}

	// Point far outside should not be visible
	if cam.IsVisible(500, 500, 1) {
		t.Error("far point should not be visible")
	}

	// Point just outside the edge with a large radius should be visible
	cam.SetZoom(cam.MaxZoom)
	minX, _, _, _ := cam.VisibleWorldBounds()
	if !cam.IsVisible(minX-1, 20, 2) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 40, 40)
	cam.X = 5
	cam.Y = 5
	cam.Zoom = 30

	cam.Reset()

	if cam.X != 20 || cam.Y != 20 {
		t.Errorf("expected position (20, 20), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 18 {
		t.Errorf("expected fitted zoom 18, got %f", cam.Zoom)
	}
}
