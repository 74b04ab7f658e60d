// Package ingest is the remote ingestion service the gateway uplinks to. It
// grades every reading, stores it and streams it to live WebSocket clients.
package ingest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"auramesh/internal/httpapi"
	"auramesh/internal/ingest/repository"
)

// RegisterFeature mounts the sensor, alert, position, health and live-feed routes.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, hub *Hub, logger *slog.Logger) {
	ctrl := newController(repository.NewRepository(db), hub, logger)
	ctrl.RegisterRoutes(mux)
	newPositionController(repository.NewPositionRepository(db), logger).RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", httpapi.Healthz(db, logger))
	mux.Handle("GET /ws", hub)
}
