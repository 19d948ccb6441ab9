package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/twintank/config"
	"github.com/pthm-cable/twintank/engine"
	"github.com/pthm-cable/twintank/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	snapshotEvery := flag.Int("snapshot-every", 0, "Save a snapshot every N ticks (0 = bookmarks only)")
	restorePath := flag.String("restore", "", "Resume from a snapshot file")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 1000, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Neighbor search workers (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := engine.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		SnapshotEvery:  int32(*snapshotEvery),
		OutputDir:      *outputDir,
		Workers:        *workers,
	}

	e, err := engine.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	e.Setup()

	if *restorePath != "" {
		snapshot, err := telemetry.LoadSnapshot(*restorePath)
		if err == nil {
			err = e.Restore(snapshot)
		}
		if err != nil {
			slog.Error("failed to restore snapshot", "path", *restorePath, "error", err)
			e.Close()
			os.Exit(1)
		}
	}

	slog.Info("starting simulation",
		"particles", e.Len(),
		"dt", cfg.Physics.DT,
		"max_ticks", *maxTicks,
		"start_tick", e.Tick(),
	)

	start := time.Now()
	for *maxTicks <= 0 || int(e.Tick()) < *maxTicks {
		e.Step(cfg.Physics.DT)
	}

	slog.Info("max ticks reached",
		"tick", e.Tick(),
		"sim_time", e.SimTime(),
		"wall_time", time.Since(start).String(),
	)

	if err := e.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		os.Exit(1)
	}
}
