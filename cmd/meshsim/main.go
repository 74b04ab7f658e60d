package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auramesh/internal/config"
	"auramesh/internal/logging"
	"auramesh/internal/meshsim"
)

const appName = "aura-meshsim"

// Overridden in release builds with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadMeshSim()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Common, version, appName)
	slog.SetDefault(logger)

	logger.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"uplink", cfg.UplinkBaseURL,
		"cycle_interval", cfg.CycleInterval.String(),
		"stage_duration", cfg.StageDuration.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := meshsim.New(meshsim.OptionsFrom(cfg), logger, time.Now())
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
}
