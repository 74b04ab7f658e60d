package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Leaf struct {
	Common
	MQTT   MQTT
	Labels Labels

	ReportInterval time.Duration
	LoopInterval   time.Duration
	GasLimit       float64
	DistanceLimit  float64
	BuzzerHold     time.Duration

	Backend       Backend
	BuzzerPin     string
	SafetyPin     string
	I2CBus        string
	BME280Address uint16
}

func LoadLeaf() (Leaf, error) {
	common, err := loadCommon()
	if err != nil {
		return Leaf{}, err
	}
	mqtt, err := loadMQTT("aura-leaf-" + uuid.NewString()[:8])
	if err != nil {
		return Leaf{}, err
	}
	labels, err := loadLabels()
	if err != nil {
		return Leaf{}, err
	}
	backend, err := loadBackend()
	if err != nil {
		return Leaf{}, err
	}

	report, err := envDuration("REPORT_INTERVAL", 2*time.Second)
	if err != nil {
		return Leaf{}, err
	}
	loopInterval, err := envDuration("LOOP_INTERVAL", 5*time.Millisecond)
	if err != nil {
		return Leaf{}, err
	}
	gasLimit, err := envFloat("GAS_LIMIT", 800)
	if err != nil {
		return Leaf{}, err
	}
	distanceLimit, err := envFloat("DISTANCE_LIMIT", 10)
	if err != nil {
		return Leaf{}, err
	}
	if distanceLimit <= 0 {
		return Leaf{}, fmt.Errorf("DISTANCE_LIMIT must be positive, got %v", distanceLimit)
	}
	hold, err := envDuration("BUZZER_HOLD", 3*time.Second)
	if err != nil {
		return Leaf{}, err
	}
	bme, err := envAddr("BME280_ADDRESS", 0x76)
	if err != nil {
		return Leaf{}, err
	}

	return Leaf{
		Common:         common,
		MQTT:           mqtt,
		Labels:         labels,
		ReportInterval: report,
		LoopInterval:   loopInterval,
		GasLimit:       gasLimit,
		DistanceLimit:  distanceLimit,
		BuzzerHold:     hold,
		Backend:        backend,
		BuzzerPin:      env("BUZZER_PIN", "GPIO8"),
		SafetyPin:      env("SAFETY_PIN", "GPIO9"),
		I2CBus:         env("I2C_BUS", ""),
		BME280Address:  bme,
	}, nil
}
