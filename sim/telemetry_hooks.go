package sim

import (
	"math"
	"time"

	"github.com/pthm-cable/crush/components"
	"github.com/pthm-cable/crush/observer"
	"github.com/pthm-cable/crush/telemetry"
)

// observeTick feeds per-tick peaks to the collector and metrics.
func (s *Simulation) observeTick(dt float64, elapsed time.Duration) {
	var active int
	var maxDensity, maxStress float64
	for _, a := range s.store.Agents() {
		if a.Status != components.Active {
			continue
		}
		active++
		maxDensity = math.Max(maxDensity, a.Density)
		maxStress = math.Max(maxStress, a.HeatStress)
	}
	s.collector.ObserveTick(dt, active, maxDensity, maxStress)

	if s.metrics != nil {
		c := s.store.Counts()
		s.metrics.SetCounts(c.Active, c.CollapsedCollision, c.CollapsedHeat, c.Arrived)
		s.metrics.ObserveTick(elapsed.Seconds(), maxDensity, maxStress)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush() {
		return
	}

	stats := s.collector.Flush(s.tick, s.samplePopulation())
	perfStats := s.perfCollector.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		s.log.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.log.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarkDetector.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.outputManager.WriteBookmark(bm); err != nil {
			s.log.Error("failed to write bookmark", "error", err)
		}
	}
}

// samplePopulation collects the window-end distributions over active agents.
func (s *Simulation) samplePopulation() telemetry.Population {
	pop := telemetry.Population{TotalArrived: s.totals.Arrived}
	for _, a := range s.store.Agents() {
		switch a.Status {
		case components.Active:
			pop.Active++
			pop.Speeds = append(pop.Speeds, a.Speed())
			pop.Temperatures = append(pop.Temperatures, a.Temperature)
			pop.HeatStress = append(pop.HeatStress, a.HeatStress)
			pop.Densities = append(pop.Densities, a.Density)
		case components.CollapsedCollision:
			pop.CollapsedCollision++
		case components.CollapsedHeat:
			pop.CollapsedHeat++
		}
	}
	return pop
}

// publishFrame sends a frame to observers every observer.frame_interval
// seconds of simulated time.
func (s *Simulation) publishFrame(dt float64) {
	if s.hub.Clients() == 0 {
		return
	}
	s.frameTimer += dt
	if s.frameTimer < s.cfg.Observer.FrameInterval {
		return
	}
	s.frameTimer = 0

	frame := observer.NewFrame(s.runID, s.tick, s.simTime, s.store.Counts(), s.totals.Arrived, s.store.Agents())
	if err := s.hub.Publish(frame); err != nil {
		s.log.Error("failed to publish frame", "error", err)
	}
}

// publishHello refreshes the scenario layout sent to newly connected observers.
func (s *Simulation) publishHello() {
	if s.hub == nil {
		return
	}
	hello := observer.Hello{
		RunID:     s.runID,
		WorldSize: s.cfg.World.Size,
		Start:     [2]float64{s.start.X, s.start.Y},
		Target:    [2]float64{s.target.X, s.target.Y},
		Obstacles: make([][2]float64, len(s.obstacles)),
	}
	for i, o := range s.obstacles {
		hello.Obstacles[i] = [2]float64{o.X, o.Y}
	}
	if err := s.hub.SetHello(hello); err != nil {
		s.log.Error("failed to set observer hello", "error", err)
	}
}
