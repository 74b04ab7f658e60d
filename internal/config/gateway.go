package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxUplinkTimeout caps UPLINK_TIMEOUT so a POST can never stall the loop.
const MaxUplinkTimeout = 2 * time.Second

type Gateway struct {
	Common
	MQTT   MQTT
	Labels Labels

	UplinkBaseURL string
	UplinkTimeout time.Duration
	CycleInterval time.Duration
	LoopInterval  time.Duration
	MetricsAddr   string
	BLEAdapter    string

	Backend    Backend
	TrigPin    string
	EchoPin    string
	GasDOPin   string
	GasSPI     string
	GasChannel int
	BuzzerPin  string
	LEDPin     string
	I2CBus     string
	LCDAddress uint16
	MPUAddress uint16
}

func LoadGateway() (Gateway, error) {
	common, err := loadCommon()
	if err != nil {
		return Gateway{}, err
	}
	mqtt, err := loadMQTT("aura-gateway-" + uuid.NewString()[:8])
	if err != nil {
		return Gateway{}, err
	}
	labels, err := loadLabels()
	if err != nil {
		return Gateway{}, err
	}
	backend, err := loadBackend()
	if err != nil {
		return Gateway{}, err
	}

	uplinkTimeout, err := envDuration("UPLINK_TIMEOUT", 1500*time.Millisecond)
	if err != nil {
		return Gateway{}, err
	}
	if uplinkTimeout > MaxUplinkTimeout {
		return Gateway{}, fmt.Errorf("UPLINK_TIMEOUT must be at most %v, got %v", MaxUplinkTimeout, uplinkTimeout)
	}
	cycle, err := envDuration("CYCLE_INTERVAL", 10*time.Second)
	if err != nil {
		return Gateway{}, err
	}
	loopInterval, err := envDuration("LOOP_INTERVAL", 5*time.Millisecond)
	if err != nil {
		return Gateway{}, err
	}
	gasChannel, err := envInt("GAS_CHANNEL", 0)
	if err != nil {
		return Gateway{}, err
	}
	if gasChannel < 0 || gasChannel > 7 {
		return Gateway{}, fmt.Errorf("GAS_CHANNEL must be 0..7, got %d", gasChannel)
	}
	lcdAddr, err := envAddr("LCD_ADDRESS", 0x27)
	if err != nil {
		return Gateway{}, err
	}
	mpuAddr, err := envAddr("MPU_ADDRESS", 0x68)
	if err != nil {
		return Gateway{}, err
	}

	return Gateway{
		Common:        common,
		MQTT:          mqtt,
		Labels:        labels,
		UplinkBaseURL: env("UPLINK_BASE_URL", "http://localhost:8000"),
		UplinkTimeout: uplinkTimeout,
		CycleInterval: cycle,
		LoopInterval:  loopInterval,
		MetricsAddr:   envRaw("METRICS_ADDR", ":9100"),
		BLEAdapter:    env("BLE_ADAPTER", ""),
		Backend:       backend,
		TrigPin:       env("TRIG_PIN", "GPIO5"),
		EchoPin:       env("ECHO_PIN", "GPIO18"),
		GasDOPin:      env("GAS_DO_PIN", "GPIO21"),
		GasSPI:        env("GAS_SPI", ""),
		GasChannel:    gasChannel,
		BuzzerPin:     env("BUZZER_PIN", "GPIO27"),
		LEDPin:        env("LED_PIN", "GPIO26"),
		I2CBus:        env("I2C_BUS", ""),
		LCDAddress:    lcdAddr,
		MPUAddress:    mpuAddr,
	}, nil
}
