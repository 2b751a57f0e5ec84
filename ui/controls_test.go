package ui

import (
	"math"
	"testing"
)

func TestSliderRange_Snap(t *testing.T) {
	tests := []struct {
		name string
		r    SliderRange
		in   float32
		want float32
	}{
		{"speed below min", SpeedRange, 0, 0.1},
		{"speed above max", SpeedRange, 3, 2.0},
		{"speed rounds to step", SpeedRange, 1.24, 1.2},
		{"agents rounds up", AgentsRange, 46, 50},
		{"agents rounds down", AgentsRange, 44, 40},
		{"agents max", AgentsRange, 200, 200},
		{"temperature half degree", TemperatureRange, 30.3, 30.5},
		{"no step", SliderRange{Min: 0, Max: 1}, 0.37, 0.37},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Snap(tt.in)
			if math.Abs(float64(got-tt.want)) > 1e-4 {
				t.Errorf("Snap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEditMode_String(t *testing.T) {
	for mode, want := range map[EditMode]string{
		ModeNone:   "View",
		ModeStart:  "Set start",
		ModeTarget: "Set target",
		ModeBlock:  "Block area",
	} {
		if got := mode.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}
