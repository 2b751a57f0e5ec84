package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm-cable/crush/config"
	"github.com/pthm-cable/crush/game"
	"github.com/pthm-cable/crush/observer"
	"github.com/pthm-cable/crush/sim"
	"github.com/pthm-cable/crush/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	observeAddr := flag.String("observe-addr", "", "Serve frames, /metrics and /healthz on this address (empty = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := game.Options{
		Sim: sim.Options{
			Seed:           rngSeed,
			LogStats:       *logStats,
			StatsWindowSec: *statsWindow,
			OutputDir:      *outputDir,
			Logger:         logger,
		},
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	addr := cfg.Observer.Addr
	if *observeAddr != "" {
		addr = *observeAddr
	}
	var server *observer.Server
	if addr != "" {
		metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			slog.Error("failed to register metrics", "error", err)
			os.Exit(1)
		}
		hub := observer.NewHub(cfg.Observer.ClientBuffer)
		opts.Sim.Metrics = metrics
		opts.Sim.Hub = hub

		server = observer.NewServer(hub, metrics.Handler(), logger)
		bound, err := server.Start(addr)
		if err != nil {
			slog.Error("failed to start observer", "addr", addr, "error", err)
			os.Exit(1)
		}
		slog.Info("observer listening", "addr", bound.String())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				slog.Error("observer shutdown", "error", err)
			}
		}()
	}

	if *headless {
		runHeadless(cfg, opts, *maxTicks)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Crowd Crush")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless steps the simulation at the fixed dt until max ticks or an
// interrupt.
func runHeadless(cfg *config.Config, opts game.Options, maxTicks int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Sim.Seed,
		"stats_window", opts.Sim.StatsWindowSec,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", g.Tick())
			return
		default:
		}

		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			totals := g.Sim().Totals()
			slog.Info("max ticks reached",
				"tick", g.Tick(),
				"spawned", totals.Spawned,
				"arrived", totals.Arrived,
				"collisions", totals.Collisions,
				"heat", totals.Heat,
			)
			return
		}
	}
}
