package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gridhaul/config"
	"github.com/pthm-cable/gridhaul/observer"
	"github.com/pthm-cable/gridhaul/sim"
	"github.com/pthm-cable/gridhaul/telemetry"
	"github.com/pthm-cable/gridhaul/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	steps := flag.Int("steps", 0, "Stop after N steps (0 = unlimited; required in headless mode)")
	outputDir := flag.String("output-dir", "", "Output directory for streamed CSV logs and config snapshot")
	archivePath := flag.String("archive", "", "Write a zip archive of the run to this path on exit")
	listen := flag.String("listen", "", "Serve live state over HTTP on this address (e.g. 127.0.0.1:8080)")
	seed := flag.Int64("seed", 0, "RNG seed override (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Sim.Seed = *seed
	}

	if *headless && *steps <= 0 {
		slog.Error("headless mode needs -steps > 0")
		os.Exit(1)
	}

	world, err := sim.NewWorld(cfg)
	if err != nil {
		slog.Error("failed to build world", "error", err)
		os.Exit(1)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to initialize output", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	var collector *telemetry.Collector
	if cfg.Sim.CollectData || *archivePath != "" {
		collector = telemetry.NewCollector()
	}

	var server *observer.Server
	if *listen != "" {
		server = observer.NewServer(logger)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := server.ListenAndServe(ctx, *listen); err != nil {
				slog.Error("observer server failed", "error", err)
			}
		}()
	}

	// afterStep publishes and records one completed step.
	afterStep := func() error {
		snap := world.Snapshot()
		if collector != nil {
			collector.Collect(snap)
		}
		if server != nil {
			server.Publish(snap)
		}
		return om.WriteStep(snap)
	}

	// Record the freshly generated world as step zero.
	if err := afterStep(); err != nil {
		slog.Error("telemetry write failed", "error", err)
		os.Exit(1)
	}

	if *headless {
		slog.Info("starting headless run", "seed", world.Seed(), "steps", *steps)
		for i := 0; i < *steps; i++ {
			world.Step()
			if err := afterStep(); err != nil {
				slog.Error("telemetry write failed", "error", err)
				os.Exit(1)
			}
		}
	} else {
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Gridhaul")
		defer rl.CloseWindow()

		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

		v := viewer.New(cfg)

		for !rl.WindowShouldClose() {
			for i := 0; i < v.PendingSteps(rl.GetFrameTime()); i++ {
				world.Step()
				if err := afterStep(); err != nil {
					slog.Error("telemetry write failed", "error", err)
					os.Exit(1)
				}
			}
			v.Draw(world.Snapshot())

			if *steps > 0 && world.Time() >= *steps {
				break
			}
		}
	}

	if *archivePath != "" {
		genStart, _ := world.GenerationTimes()
		if err := telemetry.WriteArchive(*archivePath, cfg, collector, world.Seed(), world.Time(), genStart); err != nil {
			slog.Error("failed to write archive", "error", err)
			os.Exit(1)
		}
		slog.Info("run archived", "path", *archivePath, "steps", world.Time())
	}

	slog.Info("run finished", "steps", world.Time(), "seed", world.Seed())
}
