// Package uplink buffers gateway readings for the remote ingestion service and
// delivers them one per call, behind a consecutive-failure circuit breaker.
package uplink

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrNonFinite is returned when a reading cannot be represented in JSON.
var ErrNonFinite = errors.New("uplink: non-finite value")

// Metric names one ingestion endpoint.
type Metric string

const (
	Temperature Metric = "temperature"
	Humidity    Metric = "humidity"
	GasLeakage  Metric = "gas-leakage"
	Ultrasonic  Metric = "ultrasonic"
	Earthquake  Metric = "earthquake"
)

// Metrics lists every endpoint in upload order.
var Metrics = []Metric{Temperature, Humidity, GasLeakage, Ultrasonic, Earthquake}

// Path returns the endpoint path relative to the service base URL.
func (m Metric) Path() string { return "/sensor/" + string(m) }

// Valid reports whether m is a known endpoint.
func (m Metric) Valid() bool {
	for _, k := range Metrics {
		if k == m {
			return true
		}
	}
	return false
}

// Job is one pending upload.
type Job struct {
	Endpoint string
	Payload  []byte
}

type valueBody struct {
	Value json.Number `json:"value"`
}

// NewJob formats value with two decimals as {"value": x}.
func NewJob(m Metric, value float64) (Job, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Job{}, fmt.Errorf("%s: %w", m, ErrNonFinite)
	}
	body, err := json.Marshal(valueBody{Value: json.Number(decimal.NewFromFloat(value).StringFixed(2))})
	if err != nil {
		return Job{}, fmt.Errorf("marshal %s payload: %w", m, err)
	}
	return Job{Endpoint: m.Path(), Payload: body}, nil
}
