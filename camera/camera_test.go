package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 800, 20)

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Y)
	}
	// The shorter viewport side spans the world.
	if cam.FitScale != 40 {
		t.Errorf("expected 40 px/m, got %f", cam.FitScale)
	}
}

func TestWorldToScreen(t *testing.T) {
	cam := New(1280, 800, 20)

	tests := []struct {
		wx, wy, sx, sy float32
	}{
		{0, 0, 640, 400},
		{10, 10, 1040, 800},
		{-10, -10, 240, 0},
	}
	for _, tt := range tests {
		sx, sy := cam.WorldToScreen(tt.wx, tt.wy)
		if !near(sx, tt.sx) || !near(sy, tt.sy) {
			t.Errorf("WorldToScreen(%v, %v) = (%v, %v), want (%v, %v)", tt.wx, tt.wy, sx, sy, tt.sx, tt.sy)
		}
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 800, 20)
	cam.SetZoom(2.5)
	cam.Pan(120, -40)

	for _, tc := range []struct{ sx, sy float32 }{
		{640, 400},
		{100, 100},
		{1200, 700},
	} {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)", tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanStaysOnGround(t *testing.T) {
	cam := New(1280, 800, 20)

	cam.Pan(100000, -100000)
	if cam.X != 10 || cam.Y != -10 {
		t.Errorf("expected pan clamped to (10, -10), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 800, 20)

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsCursorPoint(t *testing.T) {
	cam := New(1280, 800, 20)

	cam.ZoomAt(1040, 800, 2)

	sx, sy := cam.WorldToScreen(10, 10)
	if !near(sx, 1040) || !near(sy, 800) {
		t.Errorf("point under cursor moved to (%f, %f)", sx, sy)
	}
	if cam.Zoom != 2 {
		t.Errorf("zoom = %f, want 2", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 800, 20)

	// Visible range at zoom 1: x in [-16, 16], y in [-10, 10].
	if !cam.IsVisible(0, 0, 0.3) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(30, 0, 0.3) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(16.5, 0, 1) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestInWorld(t *testing.T) {
	cam := New(1280, 800, 20)
	if !cam.InWorld(9.9, -9.9) || cam.InWorld(10.1, 0) {
		t.Error("InWorld disagrees with the 20 m ground plane")
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 800, 20)
	cam.X, cam.Y = 3, -2
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 0 || cam.Y != 0 || cam.Zoom != 1 {
		t.Errorf("after reset: (%f, %f) zoom %f", cam.X, cam.Y, cam.Zoom)
	}
}
