// Package sim drives a crowd run: spawning, stepping, cleanup and telemetry.
package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/crush/components"
	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/observer"
	"github.com/pthm-cable/crush/store"
	"github.com/pthm-cable/crush/systems"
	"github.com/pthm-cable/crush/telemetry"
)

// Settings are the crowd controls a user can change while the run is live.
type Settings struct {
	DesiredSpeed   float64
	MaxAgents      int
	Temperature    float64
	ShowFlow       bool
	ShowFallen     bool
	ShowHeatFallen bool
}

// SettingsFromConfig returns the configured starting settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		DesiredSpeed:   cfg.Crowd.DesiredSpeed,
		MaxAgents:      cfg.Crowd.MaxAgents,
		Temperature:    cfg.Crowd.Temperature,
		ShowFlow:       cfg.Display.ShowFlow,
		ShowFallen:     cfg.Display.ShowFallen,
		ShowHeatFallen: cfg.Display.ShowHeatFallen,
	}
}

// Options configures a Simulation.
type Options struct {
	Seed           int64   // RNG seed
	LogStats       bool    // Log window stats, perf and bookmarks via slog
	StatsWindowSec float64 // 0 uses telemetry.stats_window
	OutputDir      string  // Empty disables CSV output

	Metrics       *telemetry.Metrics // Optional
	Hub           *observer.Hub      // Optional
	StatsCallback func(telemetry.WindowStats)
	Logger        *slog.Logger
}

// Totals are cumulative event counts that survive agent removal.
type Totals struct {
	Spawned    int
	Arrived    int
	Collisions int
	Heat       int
}

// Simulation owns the agent store and advances it in time.
// It is not safe for concurrent use.
type Simulation struct {
	cfg   *config.Config
	rng   *rand.Rand
	seed  int64
	runID string
	log   *slog.Logger

	store  *store.Store
	engine *systems.Engine

	settings  Settings
	start     r2.Vec
	target    r2.Vec
	obstacles []r2.Vec

	// State
	spawnTimer float64
	frameTimer float64
	tick       int32
	simTime    float64
	totals     Totals

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	metrics          *telemetry.Metrics
	hub              *observer.Hub
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
}

// New creates a simulation from cfg. The scenario starts empty; agents
// enter at the start point as the spawn timer fires.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	s := &Simulation{
		cfg:   cfg,
		rng:   rng,
		seed:  opts.Seed,
		runID: runID,
		log:   logger.With("run_id", runID),

		store:  store.New(),
		engine: systems.NewEngine(ParamsFromConfig(cfg.Model), systems.NewBruteForce(), rng),

		settings:  SettingsFromConfig(cfg),
		start:     cfg.Derived.Start,
		target:    cfg.Derived.Target,
		obstacles: append([]r2.Vec(nil), cfg.Derived.Obstacles...),

		collector:        telemetry.NewCollector(statsWindow, cfg.Physics.DT),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		outputManager:    om,
		metrics:          opts.Metrics,
		hub:              opts.Hub,
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}
	s.publishHello()

	s.log.Info("simulation created",
		"seed", opts.Seed,
		"output_dir", om.Dir(),
		"max_agents", s.settings.MaxAgents,
		"temperature", s.settings.Temperature,
	)
	return s, nil
}

// Advance runs one tick with the frame delta capped to physics.max_dt.
// Non-positive deltas are ignored.
func (s *Simulation) Advance(frameDelta float64) systems.StepReport {
	dt := math.Min(frameDelta, s.cfg.Physics.MaxDT)
	if !(dt > 0) {
		return systems.StepReport{}
	}
	start := time.Now()
	s.perfCollector.StartTick()

	s.perfCollector.StartPhase(telemetry.PhaseSpawn)
	s.updateSpawner(dt)

	s.perfCollector.StartPhase(telemetry.PhaseStep)
	report := s.engine.Step(s.store.Agents(), dt, s.environment())
	s.tick++
	s.simTime += dt

	s.perfCollector.StartPhase(telemetry.PhaseCleanup)
	s.recordTransitions(report)
	if s.cfg.Crowd.RemoveArrived {
		s.store.RemoveArrived()
	}

	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.observeTick(dt, time.Since(start))
	s.flushTelemetry()

	s.perfCollector.StartPhase(telemetry.PhasePublish)
	s.publishFrame(dt)

	s.perfCollector.EndTick()
	return report
}

// Step runs one tick at the fixed physics.dt.
func (s *Simulation) Step() systems.StepReport {
	return s.Advance(s.cfg.Physics.DT)
}

// RecordFrame records frame timing for graphics mode.
func (s *Simulation) RecordFrame() {
	s.perfCollector.RecordFrame()
}

func (s *Simulation) environment() systems.Environment {
	return systems.Environment{
		Target:             s.target,
		Obstacles:          s.obstacles,
		AmbientTemperature: s.settings.Temperature,
		DesiredSpeed:       s.settings.DesiredSpeed,
	}
}

// updateSpawner admits one agent each time the timer passes the spawn
// interval. The timer resets whether or not the cap allowed the spawn.
func (s *Simulation) updateSpawner(dt float64) {
	if s.spawnTimer <= s.cfg.Crowd.SpawnInterval {
		s.spawnTimer += dt
		return
	}
	if s.store.Len() >= s.settings.MaxAgents {
		s.spawnTimer = 0
		return
	}
	if s.entranceBlocked() {
		// Retry next tick without resetting the timer.
		s.collector.RecordSpawnBlocked()
		return
	}
	s.spawnTimer = 0

	base := s.cfg.Spawn.BaseSpeed
	if base <= 0 {
		base = s.settings.DesiredSpeed
	}
	s.store.Spawn(NewAgent(s.start, base, s.settings.Temperature, s.cfg.Spawn, s.rng))
	s.totals.Spawned++
	s.collector.RecordSpawn()
	s.metrics.RecordSpawn()
}

// entranceBlocked reports whether an active agent stands within the spawn
// clearance of the start point.
func (s *Simulation) entranceBlocked() bool {
	clearance := s.cfg.Spawn.Clearance
	if clearance <= 0 {
		return false
	}
	for _, a := range s.store.Agents() {
		if a.Status == components.Active && r2.Norm(r2.Sub(a.Position, s.start)) < clearance {
			return true
		}
	}
	return false
}

func (s *Simulation) recordTransitions(report systems.StepReport) {
	for _, tr := range report.Transitions {
		switch tr.Status {
		case components.Arrived:
			s.totals.Arrived++
		case components.CollapsedCollision:
			s.totals.Collisions++
			s.log.Debug("agent collapsed", "id", tr.ID, "cause", tr.Status.String(), "tick", s.tick)
		case components.CollapsedHeat:
			s.totals.Heat++
			s.log.Debug("agent collapsed", "id", tr.ID, "cause", tr.Status.String(), "tick", s.tick)
		}
		s.collector.RecordTransition(tr.Status)
		s.metrics.RecordTransition(tr.Status)
	}
}

// Settings returns the live crowd settings.
func (s *Simulation) Settings() Settings { return s.settings }

// SetSettings replaces the live crowd settings. Agents already in the scene
// keep their drawn max speed.
func (s *Simulation) SetSettings(st Settings) {
	if st.MaxAgents < 0 {
		st.MaxAgents = 0
	}
	if st.DesiredSpeed < 0 {
		st.DesiredSpeed = 0
	}
	s.settings = st
}

// SetStart moves the entrance and clears the scene.
func (s *Simulation) SetStart(p r2.Vec) {
	s.start = p
	s.clearAgents()
	s.publishHello()
}

// SetTarget moves the meeting point and clears the scene.
func (s *Simulation) SetTarget(p r2.Vec) {
	s.target = p
	s.clearAgents()
	s.publishHello()
}

// AddObstacle blocks the area centered at p.
func (s *Simulation) AddObstacle(p r2.Vec) {
	s.obstacles = append(s.obstacles, p)
	s.publishHello()
}

// Reset clears the scene and restores the configured settings, endpoints and
// obstacles. Cumulative totals restart from zero.
func (s *Simulation) Reset() {
	s.settings = SettingsFromConfig(s.cfg)
	s.start = s.cfg.Derived.Start
	s.target = s.cfg.Derived.Target
	s.obstacles = append(s.obstacles[:0], s.cfg.Derived.Obstacles...)
	s.clearAgents()
	s.totals = Totals{}
	s.publishHello()
	s.log.Info("simulation reset", "tick", s.tick)
}

func (s *Simulation) clearAgents() {
	s.store.Reset()
	s.spawnTimer = 0
}

// Agents returns every stored agent ordered by spawn ID.
// The slice is reused by the next call.
func (s *Simulation) Agents() []*components.Agent { return s.store.Agents() }

// Counts tallies stored agents by status.
func (s *Simulation) Counts() store.Counts { return s.store.Counts() }

// Totals returns cumulative event counts.
func (s *Simulation) Totals() Totals { return s.totals }

// Tick returns the number of ticks run.
func (s *Simulation) Tick() int32 { return s.tick }

// SimTime returns elapsed simulated seconds.
func (s *Simulation) SimTime() float64 { return s.simTime }

// Start returns the entrance point.
func (s *Simulation) Start() r2.Vec { return s.start }

// Target returns the meeting point.
func (s *Simulation) Target() r2.Vec { return s.target }

// Obstacles returns the blocked area centers.
func (s *Simulation) Obstacles() []r2.Vec { return s.obstacles }

// RunID returns the run's unique identifier.
func (s *Simulation) RunID() string { return s.runID }

// Seed returns the RNG seed.
func (s *Simulation) Seed() int64 { return s.seed }

// Config returns the configuration the run was built from.
func (s *Simulation) Config() *config.Config { return s.cfg }

// PerfStats returns timing over the perf collector window.
func (s *Simulation) PerfStats() telemetry.PerfStats { return s.perfCollector.Stats() }

// Close flushes and closes output files.
func (s *Simulation) Close() error {
	return s.outputManager.Close()
}
