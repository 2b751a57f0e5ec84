package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/crush/components"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 2.5},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
		{"p75 interpolates", []float64{0, 10}, 0.75, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-0.55) > 1e-9 {
		t.Errorf("mean = %v, want 0.55", d.Mean)
	}
	if math.Abs(d.Std-math.Sqrt(0.0825)) > 1e-9 {
		t.Errorf("std = %v, want %v", d.Std, math.Sqrt(0.0825))
	}
	if math.Abs(d.P10-0.1) > 1e-9 || math.Abs(d.P50-0.5) > 1e-9 || math.Abs(d.P90-0.9) > 1e-9 {
		t.Errorf("percentiles = %v/%v/%v, want 0.1/0.5/0.9", d.P10, d.P50, d.P90)
	}
	if values[0] != 1.0 {
		t.Error("input slice was reordered")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	if d := ComputeDistribution(nil); d != (Distribution{}) {
		t.Errorf("empty slice should return zero distribution, got %+v", d)
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("WindowDurationTicks() = %d, want 10", c.WindowDurationTicks())
	}

	c.RecordSpawn()
	c.RecordSpawn()
	c.RecordSpawnBlocked()
	c.RecordTransition(components.CollapsedCollision)
	c.RecordTransition(components.Arrived)
	c.RecordTransition(components.Arrived)
	c.ObserveTick(0.1, 4, 7.5, 2)
	c.ObserveTick(0.1, 2, 3, 6)
	for i := 0; i < 7; i++ {
		c.ObserveTick(0.1, 0, 0, 0)
	}

	if c.ShouldFlush() {
		t.Error("ShouldFlush() = true after 0.9s of a 1s window")
	}
	c.ObserveTick(0.1, 0, 0, 0)
	if !c.ShouldFlush() {
		t.Fatal("ShouldFlush() = false at window end")
	}

	s := c.Flush(10, Population{
		Active:       2,
		TotalArrived: 7,
		Speeds:       []float64{1, 1.2},
	})

	if s.Spawned != 2 || s.SpawnsBlocked != 1 || s.Collisions != 1 || s.HeatCollapses != 0 || s.Arrivals != 2 {
		t.Errorf("event counts wrong: %+v", s)
	}
	if s.Collapses() != 1 {
		t.Errorf("Collapses() = %d, want 1", s.Collapses())
	}
	if math.Abs(s.CollapseRate-1.0) > 1e-9 {
		t.Errorf("collapse rate = %v, want 1/s", s.CollapseRate)
	}
	if s.PeakActive != 4 || s.DensityPeak != 7.5 || s.HeatStressPeak != 6 {
		t.Errorf("peaks = %d/%v/%v, want 4/7.5/6", s.PeakActive, s.DensityPeak, s.HeatStressPeak)
	}
	if math.Abs(s.SpeedMean-1.1) > 1e-9 || s.TotalArrived != 7 {
		t.Errorf("population stats wrong: %+v", s)
	}
	if math.Abs(s.SimTimeSec-1.0) > 1e-9 {
		t.Errorf("sim time = %v, want 1", s.SimTimeSec)
	}

	// Counters reset for the next window.
	next := c.Flush(20, Population{})
	if next.Spawned != 0 || next.Arrivals != 0 || next.PeakActive != 0 || next.WindowStartTick != 10 {
		t.Errorf("window not reset: %+v", next)
	}
}
