package httpapi

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz answers 200 {"status":"ok"} when p is nil or reachable.
func Healthz(p Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.PingContext(r.Context()); err != nil {
				logger.Error("failed to check database connectivity", "error", err)
				WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
