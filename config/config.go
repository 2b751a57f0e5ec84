// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Crowd     CrowdConfig     `yaml:"crowd"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Display   DisplayConfig   `yaml:"display"`
	Model     ModelConfig     `yaml:"model"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Observer  ObserverConfig  `yaml:"observer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the ground plane extent in meters, centered on the origin.
type WorldConfig struct {
	Size     float64 `yaml:"size"`
	CellSize float64 `yaml:"cell_size"` // Grid cell for blocking areas and drawing
}

// PhysicsConfig holds integration settings.
type PhysicsConfig struct {
	DT    float64 `yaml:"dt"`     // Fixed step for headless runs
	MaxDT float64 `yaml:"max_dt"` // Frame deltas are capped to this
}

// Point is a 2D position in meters.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ScenarioConfig places the entrance, exit and blocked areas.
type ScenarioConfig struct {
	Start     Point   `yaml:"start"`
	Target    Point   `yaml:"target"`
	Obstacles []Point `yaml:"obstacles"`
}

// CrowdConfig holds the user-facing crowd settings.
type CrowdConfig struct {
	DesiredSpeed  float64 `yaml:"desired_speed"`  // Multiplier on each agent's max speed
	MaxAgents     int     `yaml:"max_agents"`     // Spawning stops at this many stored agents
	Temperature   float64 `yaml:"temperature"`    // Ambient, degrees C
	SpawnInterval float64 `yaml:"spawn_interval"` // Seconds between spawns
	RemoveArrived bool    `yaml:"remove_arrived"` // Drop arrived agents so new ones can enter
}

// Range is a closed interval sampled uniformly.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// SpawnConfig holds the ranges new agents are drawn from.
type SpawnConfig struct {
	Mass        Range   `yaml:"mass"`
	Radius      Range   `yaml:"radius"`
	SpeedFactor Range   `yaml:"speed_factor"` // Multiplies the base speed
	BaseSpeed   float64 `yaml:"base_speed"`   // Meters per second; 0 uses the desired speed at spawn time
	Jitter      float64 `yaml:"jitter"`       // Spawn position spread around the start point
	Clearance   float64 `yaml:"clearance"`    // Skip a spawn while an active agent is this close to the start (0 = never)
}

// DisplayConfig holds the viewer toggles.
type DisplayConfig struct {
	ShowFlow       bool `yaml:"show_flow"`
	ShowFallen     bool `yaml:"show_fallen"`
	ShowHeatFallen bool `yaml:"show_heat_fallen"`
	FlowEvery      int  `yaml:"flow_every"` // Draw a flow arrow for every Nth active agent
}

// ModelConfig holds the force model constants.
type ModelConfig struct {
	RelaxationTime          float64 `yaml:"relaxation_time"`
	DesiredForceFactor      float64 `yaml:"desired_force_factor"`
	DesiredAttenuation      float64 `yaml:"desired_attenuation"`
	DesiredAttenuationFloor float64 `yaml:"desired_attenuation_floor"`

	SocialA           float64 `yaml:"social_a"`
	SocialB           float64 `yaml:"social_b"`
	SocialRangeFactor float64 `yaml:"social_range_factor"`
	VelocityAlignment float64 `yaml:"velocity_alignment"`

	ObstacleA           float64 `yaml:"obstacle_a"`
	ObstacleB           float64 `yaml:"obstacle_b"`
	ObstacleRadius      float64 `yaml:"obstacle_radius"`
	ObstacleRangeFactor float64 `yaml:"obstacle_range_factor"`

	OptimalTemperature     float64 `yaml:"optimal_temperature"`
	TemperatureThreshold   float64 `yaml:"temperature_threshold"`
	TemperatureSensitivity float64 `yaml:"temperature_sensitivity"`

	DensityRadius      float64 `yaml:"density_radius"`
	DensitySoftening   float64 `yaml:"density_softening"`
	OptimalDensity     float64 `yaml:"optimal_density"`
	DensityThreshold   float64 `yaml:"density_threshold"`
	DensitySensitivity float64 `yaml:"density_sensitivity"`

	FallThreshold           float64 `yaml:"fall_threshold"` // Net force limit per kg
	CriticalHeatStress      float64 `yaml:"critical_heat_stress"`
	EnvDensityThreshold     float64 `yaml:"env_density_threshold"`
	EnvTemperatureThreshold float64 `yaml:"env_temperature_threshold"`
	EnvDensityRate          float64 `yaml:"env_density_rate"`
	EnvTemperatureRate      float64 `yaml:"env_temperature_rate"`

	MinSpeedFraction float64 `yaml:"min_speed_fraction"`
	ArrivalRadius    float64 `yaml:"arrival_radius"`
	MaxForce         float64 `yaml:"max_force"`

	Thermal ThermalConfig `yaml:"thermal"`
}

// ThermalConfig holds the perceived-temperature model constants.
type ThermalConfig struct {
	ProximityRadius      float64 `yaml:"proximity_radius"`
	CrowdHeatPerAgent    float64 `yaml:"crowd_heat_per_agent"`
	Smoothing            float64 `yaml:"smoothing"`
	HighTempThreshold    float64 `yaml:"high_temp_threshold"`
	TempNormalization    float64 `yaml:"temp_normalization"`
	DensityNormalization float64 `yaml:"density_normalization"`
	StressBaseline       float64 `yaml:"stress_baseline"`
	RecoveryRate         float64 `yaml:"recovery_rate"`
}

// TelemetryConfig holds telemetry and statistics parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Stats window in seconds of simulated time
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
	BookmarkHistorySize int     `yaml:"bookmark_history_size"` // Windows kept for bookmark detection
}

// BookmarksConfig holds the thresholds for notable-event detection.
type BookmarksConfig struct {
	CollapseSurgeFactor  float64 `yaml:"collapse_surge_factor"` // Collapses vs rolling average
	CollapseSurgeMin     int     `yaml:"collapse_surge_min"`    // Ignore surges smaller than this
	HeatWaveStress       float64 `yaml:"heat_wave_stress"`      // Mean heat stress across active agents
	GridlockSpeed        float64 `yaml:"gridlock_speed"`        // Mean speed below this with agents present
	GridlockMinAgents    int     `yaml:"gridlock_min_agents"`
	SteadyFlowWindows    int     `yaml:"steady_flow_windows"`     // Consecutive windows with arrivals and no collapses
	SteadyFlowMinArrived int     `yaml:"steady_flow_min_arrived"` // Arrivals per window to count as flowing
}

// ObserverConfig holds the frame streaming server settings.
type ObserverConfig struct {
	Addr          string  `yaml:"addr"`           // Empty disables the server
	FrameInterval float64 `yaml:"frame_interval"` // Seconds of simulated time between frames
	ClientBuffer  int     `yaml:"client_buffer"`  // Frames queued per client before dropping
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Start     r2.Vec
	Target    r2.Vec
	Obstacles []r2.Vec
	HalfSize  float64 // Half the world extent

	TicksPerStatsWindow int32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Defaults returns a fresh copy of the embedded defaults with derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	case c.Physics.MaxDT <= 0:
		return fmt.Errorf("physics.max_dt must be positive, got %v", c.Physics.MaxDT)
	case c.Crowd.DesiredSpeed < 0:
		return fmt.Errorf("crowd.desired_speed must not be negative, got %v", c.Crowd.DesiredSpeed)
	case c.Crowd.MaxAgents < 0:
		return fmt.Errorf("crowd.max_agents must not be negative, got %d", c.Crowd.MaxAgents)
	case c.Crowd.SpawnInterval <= 0:
		return fmt.Errorf("crowd.spawn_interval must be positive, got %v", c.Crowd.SpawnInterval)
	case c.Spawn.Mass.Min <= 0 || c.Spawn.Mass.Max < c.Spawn.Mass.Min:
		return fmt.Errorf("spawn.mass range invalid: %+v", c.Spawn.Mass)
	case c.Spawn.Radius.Min <= 0 || c.Spawn.Radius.Max < c.Spawn.Radius.Min:
		return fmt.Errorf("spawn.radius range invalid: %+v", c.Spawn.Radius)
	case c.Model.RelaxationTime <= 0:
		return fmt.Errorf("model.relaxation_time must be positive, got %v", c.Model.RelaxationTime)
	case c.Model.SocialB <= 0 || c.Model.ObstacleB <= 0:
		return fmt.Errorf("model.social_b and model.obstacle_b must be positive")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Start = c.Scenario.Start.Vec()
	c.Derived.Target = c.Scenario.Target.Vec()
	c.Derived.Obstacles = make([]r2.Vec, len(c.Scenario.Obstacles))
	for i, p := range c.Scenario.Obstacles {
		c.Derived.Obstacles[i] = p.Vec()
	}
	c.Derived.HalfSize = c.World.Size / 2

	c.Derived.TicksPerStatsWindow = 1
	if c.Physics.DT > 0 {
		if n := int32(math.Round(c.Telemetry.StatsWindow / c.Physics.DT)); n > 1 {
			c.Derived.TicksPerStatsWindow = n
		}
	}
}

// Vec converts a point to a vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
