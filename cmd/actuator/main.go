package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"auramesh/internal/actuator"
	"auramesh/internal/config"
	"auramesh/internal/logging"
)

const appName = "aura-actuator"

// Overridden in release builds with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadActuator()
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
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := actuator.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down")
}
