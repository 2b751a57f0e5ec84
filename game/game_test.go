package game

import (
	"testing"

	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/sim"
	"github.com/pthm-cable/crush/ui"
)

func newHeadless(t *testing.T, steps int) *Game {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	g, err := NewGame(cfg, Options{
		Sim:            sim.Options{Seed: 3},
		Headless:       true,
		StepsPerUpdate: steps,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestUpdateHeadless_StepsPerUpdate(t *testing.T) {
	g := newHeadless(t, 5)
	if !g.Running() {
		t.Error("headless game should start running")
	}

	g.UpdateHeadless()
	g.UpdateHeadless()
	if g.Tick() != 10 {
		t.Errorf("Tick() = %d, want 10", g.Tick())
	}
}

func TestNewGame_DefaultsSteps(t *testing.T) {
	g := newHeadless(t, 0)
	g.UpdateHeadless()
	if g.Tick() != 1 {
		t.Errorf("Tick() = %d, want 1", g.Tick())
	}
}

func TestReset_StopsAndClearsMode(t *testing.T) {
	g := newHeadless(t, 20)
	for i := 0; i < 5; i++ {
		g.UpdateHeadless()
	}
	if g.Sim().Counts().Total() == 0 {
		t.Fatal("expected agents after 100 ticks")
	}
	g.mode = ui.ModeBlock

	g.reset()

	if g.Running() {
		t.Error("reset should stop the run")
	}
	if g.mode != ui.ModeNone {
		t.Errorf("mode = %v, want view", g.mode)
	}
	if n := g.Sim().Counts().Total(); n != 0 {
		t.Errorf("agents after reset = %d, want 0", n)
	}
}
