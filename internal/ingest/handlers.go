package ingest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"auramesh/internal/httpapi"
	"auramesh/internal/ingest/repository"
	"auramesh/internal/ingest/types"
	"auramesh/internal/uplink"
)

const (
	defaultLimit = 20
	maxLimit     = 1000
	maxBodyBytes = 1 << 10
)

// Broadcaster receives every accepted reading.
type Broadcaster interface {
	Broadcast(ev types.Event)
}

type controller struct {
	repo   repository.ReadingRepository
	feed   Broadcaster
	logger *slog.Logger
	now    func() time.Time
}

func newController(repo repository.ReadingRepository, feed Broadcaster, logger *slog.Logger) *controller {
	return &controller{repo: repo, feed: feed, logger: logger, now: time.Now}
}

func (c *controller) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /sensor/{metric}", c.handlePost)
	mux.HandleFunc("GET /sensor/{metric}/latest", c.handleLatest)
	mux.HandleFunc("GET /alerts", c.handleAlerts)
	mux.HandleFunc("GET /alerts/latest", c.handleLatestAlert)
}

type valueBody struct {
	Value *float64 `json:"value"`
}

func (c *controller) handlePost(w http.ResponseWriter, r *http.Request) {
	metric := uplink.Metric(r.PathValue("metric"))
	if !metric.Valid() {
		httpapi.WriteError(w, http.StatusNotFound, "unknown sensor "+strconv.Quote(string(metric)))
		return
	}

	var body valueBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Value == nil || math.IsNaN(*body.Value) || math.IsInf(*body.Value, 0) {
		httpapi.WriteError(w, http.StatusBadRequest, "'value' must be a number")
		return
	}
	v := *body.Value

	a, err := Classify(metric, v)
	if err != nil {
		httpapi.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	rec := types.Reading{
		Sensor:   string(metric),
		Value:    v,
		Severity: a.Severity,
		Title:    a.Title,
		Message:  a.Message,
		Time:     c.now().UTC(),
	}
	id, err := c.repo.InsertReading(r.Context(), rec)
	if err != nil {
		c.logger.Error("store reading failed", "sensor", rec.Sensor, "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}

	if rec.Severity != types.Safe {
		c.logger.Warn("threat detected", "id", id, "sensor", rec.Sensor, "value", v, "severity", string(rec.Severity), "title", rec.Title)
	} else {
		c.logger.Debug("reading stored", "id", id, "sensor", rec.Sensor, "value", v)
	}
	c.feed.Broadcast(types.Event{Sensor: rec.Sensor, Value: v, Severity: rec.Severity, Timestamp: rec.Time})

	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *controller) handleLatest(w http.ResponseWriter, r *http.Request) {
	metric := uplink.Metric(r.PathValue("metric"))
	if !metric.Valid() {
		httpapi.WriteError(w, http.StatusNotFound, "unknown sensor "+strconv.Quote(string(metric)))
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	readings, err := c.repo.GetLatestReadings(r.Context(), string(metric), limit)
	if err != nil {
		httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, readings)
}

func (c *controller) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	alerts, err := c.repo.GetAlerts(r.Context(), limit)
	if err != nil {
		httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, alerts)
}

func (c *controller) handleLatestAlert(w http.ResponseWriter, r *http.Request) {
	alerts, err := c.repo.GetAlerts(r.Context(), 1)
	if err != nil {
		httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(alerts) == 0 {
		httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "No alerts"})
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, alerts[0])
}

func parseLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxLimit {
		return 0, errors.New("'limit' must be <= 1000")
	}
	return n, nil
}
