// Package config loads each binary's settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common is shared by every binary.
type Common struct {
	AppEnv   string
	LogLevel slog.Level
}

func loadCommon() (Common, error) {
	appEnv := env("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Common{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(env("LOG_LEVEL", "info"))
	if err != nil {
		return Common{}, err
	}
	return Common{AppEnv: appEnv, LogLevel: level}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

// Backend selects the hardware implementation.
type Backend string

const (
	BackendSim    Backend = "sim"
	BackendPeriph Backend = "periph"
)

func loadBackend() (Backend, error) {
	b := Backend(env("HW_BACKEND", string(BackendSim)))
	switch b {
	case BackendSim, BackendPeriph:
		return b, nil
	default:
		return "", fmt.Errorf("invalid HW_BACKEND %q (allowed: sim, periph)", b)
	}
}

// MQTT holds the broker settings for the mesh transport.
type MQTT struct {
	Broker   string
	Port     int
	ClientID string
	Topic    string
}

func loadMQTT(defaultClientID string) (MQTT, error) {
	port, err := envInt("MQTT_PORT", 1883)
	if err != nil {
		return MQTT{}, err
	}
	if port <= 0 || port > 65535 {
		return MQTT{}, fmt.Errorf("MQTT_PORT out of range: %d", port)
	}
	return MQTT{
		Broker:   env("MQTT_BROKER", "localhost"),
		Port:     port,
		ClientID: env("MQTT_CLIENT_ID", defaultClientID),
		Topic:    env("MESH_TOPIC", "aura/mesh"),
	}, nil
}

// Labels are the mesh identities.
type Labels struct {
	Leaf    string
	Gateway string
}

func loadLabels() (Labels, error) {
	l := Labels{
		Leaf:    env("LEAF_LABEL", "C3_Node"),
		Gateway: env("GATEWAY_LABEL", "WROOM_Gateway"),
	}
	if l.Leaf == l.Gateway {
		return Labels{}, fmt.Errorf("LEAF_LABEL and GATEWAY_LABEL must differ, both are %q", l.Leaf)
	}
	return l, nil
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// envRaw returns def only when key is unset, so an explicit empty value
// can switch a feature off.
func envRaw(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func envAddr(key string, def uint16) (uint16, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return uint16(v), nil
}

// envDuration rejects non-positive values.
func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, v)
	}
	return v, nil
}
