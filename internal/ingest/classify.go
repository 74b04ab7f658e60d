package ingest

import (
	"fmt"

	"auramesh/internal/ingest/types"
	"auramesh/internal/uplink"
)

// Assessment is the threat verdict for one reading.
type Assessment struct {
	Severity types.Severity
	Title    string
	Message  string
}

// band grades one metric. With below set, lower values are worse.
type band struct {
	warning  float64
	critical float64
	below    bool
	titles   [3]string
	messages [3]string
}

var bands = map[uplink.Metric]band{
	uplink.Temperature: {
		warning:  30,
		critical: 45,
		titles:   [3]string{"Temperature Normal", "High Temperature", "EXTREME HEAT ALERT"},
		messages: [3]string{"Temperature at %.1f C, safe range.", "Temperature elevated (%.1f C). Heat advisory.", "Temperature critically high (%.1f C). Possible fire."},
	},
	uplink.Humidity: {
		warning:  60,
		critical: 85,
		titles:   [3]string{"Humidity Normal", "Humidity Advisory", "HUMIDITY CRITICAL"},
		messages: [3]string{"Humidity at %.1f%%, comfortable.", "Humidity elevated (%.1f%%). Monitor conditions.", "Humidity at %.1f%%, extreme conditions."},
	},
	uplink.GasLeakage: {
		warning:  800,
		critical: 1200,
		titles:   [3]string{"Air Quality Normal", "Gas Detected", "SMOKE / GAS ALERT"},
		messages: [3]string{"Gas level at %.0f, no hazard.", "Elevated gas reading (%.0f). Monitor area.", "Dangerous gas level (%.0f). Evacuate."},
	},
	uplink.Ultrasonic: {
		warning:  50,
		critical: 20,
		below:    true,
		titles:   [3]string{"Water Level Safe", "Rising Water Level", "FLOOD WARNING"},
		messages: [3]string{"Water at safe distance (%.1f cm).", "Water level rising (%.1f cm). Monitor closely.", "Critical water level (%.1f cm). Flash flood imminent."},
	},
	uplink.Earthquake: {
		warning:  2,
		critical: 5,
		titles:   [3]string{"Ground Stable", "Tremor Detected", "EARTHQUAKE ALERT"},
		messages: [3]string{"Vibration at %.2f m/s2, stable.", "Ground tremor (%.2f m/s2). Stay alert.", "Strong shaking (%.2f m/s2). Take cover."},
	},
}

// Classify grades v against the metric's bands. Boundary values fall on the
// safer side.
func Classify(m uplink.Metric, v float64) (Assessment, error) {
	b, ok := bands[m]
	if !ok {
		return Assessment{}, fmt.Errorf("unknown metric %q", m)
	}

	level := 0
	switch {
	case b.below && v < b.critical, !b.below && v > b.critical:
		level = 2
	case b.below && v < b.warning, !b.below && v > b.warning:
		level = 1
	}
	severities := [3]types.Severity{types.Safe, types.Warning, types.Critical}
	return Assessment{
		Severity: severities[level],
		Title:    b.titles[level],
		Message:  fmt.Sprintf(b.messages[level], v),
	}, nil
}
