// Package game runs a crowd simulation inside a raylib window, or headless.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/crush/camera"
	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/sim"
	"github.com/pthm-cable/crush/ui"
)

// Layout
const (
	panelWidth = 250
	hudWidth   = 280
	margin     = 10
)

// Options configures game behavior.
type Options struct {
	Sim            sim.Options
	Headless       bool // Run without graphics
	StepsPerUpdate int  // Ticks per update call (default 1)
}

// Game couples a simulation with its viewer state.
type Game struct {
	sim *sim.Simulation
	cfg *config.Config

	// Viewer
	camera        *camera.Camera
	settingsPanel *ui.SettingsPanel
	hud           *ui.HUD
	perfPanel     *ui.PerfPanel
	screenWidth   float32
	screenHeight  float32

	// State
	headless       bool
	running        bool
	mode           ui.EditMode
	stepsPerUpdate int
	showPerf       bool
	panning        bool
}

// NewGame creates a game for cfg.
// Graphical games must be created after rl.InitWindow.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	s, err := sim.New(cfg, opts.Sim)
	if err != nil {
		return nil, fmt.Errorf("creating simulation: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		sim:            s,
		cfg:            cfg,
		headless:       opts.Headless,
		running:        opts.Headless,
		stepsPerUpdate: steps,
	}

	if !opts.Headless {
		g.screenWidth = float32(cfg.Screen.Width)
		g.screenHeight = float32(cfg.Screen.Height)
		g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.World.Size))
		g.settingsPanel = ui.NewSettingsPanel(margin, margin, panelWidth)
		g.hud = ui.NewHUD(int32(g.screenWidth)-hudWidth-margin, margin, hudWidth)
		g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-hudWidth-margin, 300)
	}

	return g, nil
}

// Update handles input and advances the simulation by the frame delta.
func (g *Game) Update() {
	g.handleInput()

	if g.running {
		dt := float64(rl.GetFrameTime())
		for i := 0; i < g.stepsPerUpdate; i++ {
			g.sim.Advance(dt)
		}
	}
	g.sim.RecordFrame()
}

// UpdateHeadless advances StepsPerUpdate fixed ticks without touching raylib.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.sim.Step()
	}
}

// toggleRun starts or stops the crowd.
func (g *Game) toggleRun() {
	g.running = !g.running
	slog.Info("simulation toggled", "running", g.running, "tick", g.sim.Tick())
}

// reset stops the run and restores the configured scenario.
func (g *Game) reset() {
	g.running = false
	g.mode = ui.ModeNone
	g.sim.Reset()
}

// Sim returns the wrapped simulation.
func (g *Game) Sim() *sim.Simulation {
	return g.sim
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.sim.Tick()
}

// Running reports whether the crowd is moving.
func (g *Game) Running() bool {
	return g.running
}

// Unload releases resources and flushes output files.
func (g *Game) Unload() {
	if err := g.sim.Close(); err != nil {
		slog.Error("failed to close simulation output", "error", err)
	}
}
