package types

import "time"

type Severity string

const (
	Safe     Severity = "safe"
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

// Reading is one accepted sensor value with its assessment.
type Reading struct {
	ID       int64     `json:"id"`
	Sensor   string    `json:"sensor"`
	Value    float64   `json:"value"`
	Severity Severity  `json:"severity"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Time     time.Time `json:"timestamp"`
}

// Event is what live-feed clients receive for every accepted reading.
type Event struct {
	Sensor    string    `json:"sensor"`
	Value     float64   `json:"value"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Position places a sensor on the site map.
type Position struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	SensorType string    `json:"sensor_type"`
	CreatedAt  time.Time `json:"created_at"`
}
