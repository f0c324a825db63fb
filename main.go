package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/hunger/config"
	"github.com/pthm-cable/hunger/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	episodes := flag.Int("episodes", 0, "Number of training episodes (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output window stats and bookmarks via slog")
	quiet := flag.Bool("quiet", false, "Suppress per-interval progress lines")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		Seed:      *seed,
		Episodes:  *episodes,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}
	if *quiet {
		opts.Progress = game.DiscardProgress
	}

	trainer, err := game.NewTrainer(cfg, opts)
	if err != nil {
		slog.Error("failed to start training", "error", err)
		os.Exit(1)
	}
	defer trainer.Close()

	slog.Info("starting training",
		"seed", trainer.Seed(),
		"episodes", trainer.Episodes(),
		"goal_ticks", cfg.Derived.GoalTicks,
		"output_dir", *outputDir,
	)

	// Ctrl-C stops between episodes and still writes the final artifacts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := trainer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("training failed", "error", err)
	}
	game.LogSummary(res)
}
