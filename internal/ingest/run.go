package ingest

import (
	"context"
	"log/slog"
	"net/http"

	"auramesh/internal/config"
	"auramesh/internal/db"
	"auramesh/internal/httpapi"
	"auramesh/internal/migrate"
)

// Run opens and migrates the database, then serves until ctx is done.
func Run(ctx context.Context, cfg config.Ingest, logger *slog.Logger) error {
	logger.Info("config loaded",
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"dbLogSQL", cfg.LogSQL,
	)

	conn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	if _, err := migrate.Run(ctx, conn, logger); err != nil {
		return err
	}
	logger.Info("database ready")

	hub := NewHub(logger)
	defer hub.Close()

	mux := http.NewServeMux()
	RegisterFeature(mux, conn, hub, logger)

	return httpapi.Serve(ctx, httpapi.NewServer(cfg.HTTPAddr, mux, logger), logger)
}
