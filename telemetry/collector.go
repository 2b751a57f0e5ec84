package telemetry

import (
	"math"

	"github.com/pthm-cable/crush/components"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32
	windowElapsed   float64 // Simulated seconds observed in this window
	simTime         float64

	// Event counters for current window
	spawned        int
	spawnsBlocked  int
	collisions     int
	heatCollapses  int
	arrivals       int
	peakActive     int
	peakDensity    float64
	peakHeatStress float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float64) *Collector {
	ticksPerWindow := int32(1)
	if dt > 0 {
		if n := int32(math.Round(windowDurationSec / dt)); n > 1 {
			ticksPerWindow = n
		}
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records an agent entering at the start point.
func (c *Collector) RecordSpawn() {
	c.spawned++
}

// RecordSpawnBlocked records a spawn skipped because the entrance was occupied.
func (c *Collector) RecordSpawnBlocked() {
	c.spawnsBlocked++
}

// RecordTransition records an agent leaving the Active state.
func (c *Collector) RecordTransition(s components.Status) {
	switch s {
	case components.CollapsedCollision:
		c.collisions++
	case components.CollapsedHeat:
		c.heatCollapses++
	case components.Arrived:
		c.arrivals++
	}
}

// ObserveTick advances the window clock by dt and tracks per-tick peaks that
// a window-end sample would miss. Frame deltas vary in graphical mode, so
// windows are measured in simulated seconds rather than ticks.
func (c *Collector) ObserveTick(dt float64, active int, maxDensity, maxHeatStress float64) {
	c.windowElapsed += dt
	c.simTime += dt
	if active > c.peakActive {
		c.peakActive = active
	}
	if maxDensity > c.peakDensity {
		c.peakDensity = maxDensity
	}
	if maxHeatStress > c.peakHeatStress {
		c.peakHeatStress = maxHeatStress
	}
}

// ShouldFlush returns true once the window's simulated time has elapsed.
// Half a nominal step of slack absorbs floating-point drift in the sum.
func (c *Collector) ShouldFlush() bool {
	return c.windowElapsed+c.dt/2 >= c.windowDurationSec
}

// Population is the crowd state sampled at window end.
// The slices hold one value per active agent.
type Population struct {
	Active             int
	CollapsedCollision int
	CollapsedHeat      int
	TotalArrived       int // Cumulative, including removed agents

	Speeds       []float64
	Temperatures []float64
	HeatStress   []float64
	Densities    []float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, pop Population) WindowStats {
	speed := ComputeDistribution(pop.Speeds)
	temp := ComputeDistribution(pop.Temperatures)
	stress := ComputeDistribution(pop.HeatStress)
	density := ComputeDistribution(pop.Densities)

	var collapseRate float64
	if c.windowElapsed > 0 {
		collapseRate = float64(c.collisions+c.heatCollapses) / c.windowElapsed
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      c.simTime,

		Active:             pop.Active,
		CollapsedCollision: pop.CollapsedCollision,
		CollapsedHeat:      pop.CollapsedHeat,
		TotalArrived:       pop.TotalArrived,

		Spawned:       c.spawned,
		SpawnsBlocked: c.spawnsBlocked,
		Collisions:    c.collisions,
		HeatCollapses: c.heatCollapses,
		Arrivals:      c.arrivals,
		CollapseRate:  collapseRate,
		PeakActive:    c.peakActive,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP10:  speed.P10,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,

		TempMean: temp.Mean,
		TempP90:  temp.P90,

		HeatStressMean: stress.Mean,
		HeatStressP90:  stress.P90,
		HeatStressPeak: c.peakHeatStress,

		DensityMean: density.Mean,
		DensityP90:  density.P90,
		DensityPeak: c.peakDensity,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.windowElapsed = 0
	c.spawned = 0
	c.spawnsBlocked = 0
	c.collisions = 0
	c.heatCollapses = 0
	c.arrivals = 0
	c.peakActive = 0
	c.peakDensity = 0
	c.peakHeatStress = 0

	return stats
}

// WindowDurationTicks returns the number of fixed-dt ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
