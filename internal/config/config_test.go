package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel(%q) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadGateway_Defaults(t *testing.T) {
	cfg, err := LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway() error = %v", err)
	}
	if cfg.AppEnv != "dev" || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("common = %+v", cfg.Common)
	}
	if cfg.UplinkTimeout != 1500*time.Millisecond {
		t.Errorf("UplinkTimeout = %v; want 1.5s", cfg.UplinkTimeout)
	}
	if cfg.CycleInterval != 10*time.Second {
		t.Errorf("CycleInterval = %v; want 10s", cfg.CycleInterval)
	}
	if !strings.HasPrefix(cfg.MQTT.ClientID, "aura-gateway-") || len(cfg.MQTT.ClientID) != len("aura-gateway-")+8 {
		t.Errorf("ClientID = %q; want aura-gateway-<8 chars>", cfg.MQTT.ClientID)
	}
	if cfg.MQTT.Topic != "aura/mesh" || cfg.MQTT.Port != 1883 {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.Labels.Leaf != "C3_Node" || cfg.Labels.Gateway != "WROOM_Gateway" {
		t.Errorf("Labels = %+v", cfg.Labels)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q; want :9100", cfg.MetricsAddr)
	}
	if cfg.LCDAddress != 0x27 || cfg.MPUAddress != 0x68 {
		t.Errorf("addresses = %#x, %#x", cfg.LCDAddress, cfg.MPUAddress)
	}
	if cfg.Backend != BackendSim {
		t.Errorf("Backend = %q; want sim", cfg.Backend)
	}
	if cfg.GasDOPin != "GPIO21" {
		t.Errorf("GasDOPin = %q; want GPIO21 (comparator output)", cfg.GasDOPin)
	}
}

func TestLoadGateway_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MQTT_CLIENT_ID", "gw-1")
	t.Setenv("UPLINK_TIMEOUT", "2s")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("LCD_ADDRESS", "0x3f")
	t.Setenv("HW_BACKEND", "periph")
	t.Setenv("GAS_SPI", "SPI0.0")
	t.Setenv("GAS_CHANNEL", "3")

	cfg, err := LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway() error = %v", err)
	}
	if cfg.MQTT.ClientID != "gw-1" {
		t.Errorf("ClientID = %q", cfg.MQTT.ClientID)
	}
	if cfg.UplinkTimeout != 2*time.Second {
		t.Errorf("UplinkTimeout = %v", cfg.UplinkTimeout)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q; want empty to disable", cfg.MetricsAddr)
	}
	if cfg.LCDAddress != 0x3f {
		t.Errorf("LCDAddress = %#x", cfg.LCDAddress)
	}
	if cfg.Backend != BackendPeriph {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.GasSPI != "SPI0.0" || cfg.GasChannel != 3 {
		t.Errorf("gas adc = %q ch %d", cfg.GasSPI, cfg.GasChannel)
	}
}

func TestLoadGateway_Errors(t *testing.T) {
	tests := []struct {
		name, key, val, want string
	}{
		{name: "app env", key: "APP_ENV", val: "staging", want: "invalid APP_ENV"},
		{name: "log level", key: "LOG_LEVEL", val: "loud", want: "invalid LOG_LEVEL"},
		{name: "port", key: "MQTT_PORT", val: "abc", want: "invalid MQTT_PORT"},
		{name: "port range", key: "MQTT_PORT", val: "70000", want: "out of range"},
		{name: "timeout cap", key: "UPLINK_TIMEOUT", val: "5s", want: "at most"},
		{name: "negative cycle", key: "CYCLE_INTERVAL", val: "-1s", want: "must be positive"},
		{name: "backend", key: "HW_BACKEND", val: "arduino", want: "invalid HW_BACKEND"},
		{name: "address", key: "MPU_ADDRESS", val: "0xzz", want: "invalid MPU_ADDRESS"},
		{name: "gas channel", key: "GAS_CHANNEL", val: "8", want: "GAS_CHANNEL must be 0..7"},
		{name: "labels clash", key: "LEAF_LABEL", val: "WROOM_Gateway", want: "must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadGateway()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadGateway() error = %v; want %q", err, tt.want)
			}
		})
	}
}

func TestLoadLeaf(t *testing.T) {
	t.Setenv("GAS_LIMIT", "650.5")
	t.Setenv("BUZZER_HOLD", "1500ms")

	cfg, err := LoadLeaf()
	if err != nil {
		t.Fatalf("LoadLeaf() error = %v", err)
	}
	if cfg.GasLimit != 650.5 || cfg.BuzzerHold != 1500*time.Millisecond {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReportInterval != 2*time.Second || cfg.DistanceLimit != 10 || cfg.BME280Address != 0x76 {
		t.Errorf("defaults = %+v", cfg)
	}

	t.Setenv("DISTANCE_LIMIT", "0")
	if _, err := LoadLeaf(); err == nil {
		t.Fatal("LoadLeaf() accepted DISTANCE_LIMIT=0")
	}
}

func TestLoadActuator(t *testing.T) {
	cfg, err := LoadActuator()
	if err != nil {
		t.Fatalf("LoadActuator() error = %v", err)
	}
	if cfg.StepsPerRev != 2048 || cfg.Debounce != 500*time.Millisecond || cfg.MotorPause != 2*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.CoilPins != [4]string{"GPIO8", "GPIO10", "GPIO9", "GPIO11"} {
		t.Errorf("CoilPins = %v", cfg.CoilPins)
	}

	if cfg.StartClear {
		t.Error("StartClear defaults to true; want fail-safe false")
	}
	t.Setenv("START_CLEAR", "true")
	if cfg, err := LoadActuator(); err != nil || !cfg.StartClear {
		t.Errorf("START_CLEAR=true gave %v, %v", cfg.StartClear, err)
	}

	t.Setenv("COIL_PINS", "A, B ,C")
	if _, err := LoadActuator(); err == nil || !strings.Contains(err.Error(), "want 4") {
		t.Fatalf("LoadActuator() error = %v; want coil count error", err)
	}
}

func TestLoadIngest(t *testing.T) {
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("DB_CONN_MAX_LIFETIME", "30m")

	cfg, err := LoadIngest()
	if err != nil {
		t.Fatalf("LoadIngest() error = %v", err)
	}
	if cfg.HTTPAddr != ":8000" || cfg.Driver != "sqlite3" || !cfg.LogSQL {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("ConnMaxLifetime = %v", cfg.ConnMaxLifetime)
	}

	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	if _, err := LoadIngest(); err == nil {
		t.Fatal("LoadIngest() accepted DB_MAX_OPEN_CONNS=many")
	}
}

func TestLoadMeshSim(t *testing.T) {
	cfg, err := LoadMeshSim()
	if err != nil {
		t.Fatalf("LoadMeshSim() error = %v", err)
	}
	if cfg.UplinkBaseURL != "" {
		t.Errorf("UplinkBaseURL = %q; want empty by default", cfg.UplinkBaseURL)
	}
	if cfg.StageDuration != 30*time.Second || cfg.CycleInterval != 10*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("UPLINK_TIMEOUT", "3s")
	if _, err := LoadMeshSim(); err == nil {
		t.Fatal("LoadMeshSim() accepted UPLINK_TIMEOUT=3s")
	}
}
