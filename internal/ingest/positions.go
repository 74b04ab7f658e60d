package ingest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auramesh/internal/httpapi"
	"auramesh/internal/ingest/repository"
	"auramesh/internal/ingest/types"
	"auramesh/internal/uplink"
)

type positionController struct {
	repo   repository.PositionRepository
	logger *slog.Logger
	now    func() time.Time
}

func newPositionController(repo repository.PositionRepository, logger *slog.Logger) *positionController {
	return &positionController{repo: repo, logger: logger, now: time.Now}
}

func (c *positionController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /positions", c.handleList)
	mux.HandleFunc("POST /positions", c.handleCreate)
	mux.HandleFunc("DELETE /positions/{id}", c.handleDelete)
}

type positionBody struct {
	Name       string   `json:"name"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	SensorType string   `json:"sensor_type"`
}

func (b positionBody) validate() error {
	switch {
	case strings.TrimSpace(b.Name) == "":
		return errors.New("'name' is required")
	case b.Lat == nil || math.IsNaN(*b.Lat) || *b.Lat < -90 || *b.Lat > 90:
		return errors.New("'lat' must be a number in [-90, 90]")
	case b.Lng == nil || math.IsNaN(*b.Lng) || *b.Lng < -180 || *b.Lng > 180:
		return errors.New("'lng' must be a number in [-180, 180]")
	case !uplink.Metric(b.SensorType).Valid():
		return errors.New("'sensor_type' must be one of temperature, humidity, gas-leakage, ultrasonic, earthquake")
	}
	return nil
}

func (c *positionController) handleList(w http.ResponseWriter, r *http.Request) {
	positions, err := c.repo.ListPositions(r.Context())
	if err != nil {
		httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, positions)
}

func (c *positionController) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body positionBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := body.validate(); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := c.repo.InsertPosition(r.Context(), types.Position{
		Name:       strings.TrimSpace(body.Name),
		Lat:        *body.Lat,
		Lng:        *body.Lng,
		SensorType: body.SensorType,
		CreatedAt:  c.now(),
	})
	if err != nil {
		c.logger.Error("store position failed", "name", body.Name, "error", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "failed to store position")
		return
	}
	c.logger.Info("sensor position added", "id", p.ID, "name", p.Name, "sensor_type", p.SensorType)
	httpapi.WriteJSON(w, http.StatusOK, p)
}

func (c *positionController) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpapi.WriteError(w, http.StatusBadRequest, "'id' must be a positive integer")
		return
	}

	err = c.repo.DeletePosition(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		httpapi.WriteError(w, http.StatusNotFound, "position not found")
		return
	case err != nil:
		httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	c.logger.Info("sensor position deleted", "id", id)
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
