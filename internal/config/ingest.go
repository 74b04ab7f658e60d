package config

import (
	"fmt"
	"time"
)

type Ingest struct {
	Common
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

func LoadIngest() (Ingest, error) {
	common, err := loadCommon()
	if err != nil {
		return Ingest{}, err
	}

	maxOpen, err := envInt("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Ingest{}, err
	}
	maxIdle, err := envInt("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Ingest{}, err
	}
	if maxOpen < 0 || maxIdle < 0 {
		return Ingest{}, fmt.Errorf("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative")
	}

	lifetime := time.Duration(0)
	if s := env("DB_CONN_MAX_LIFETIME", ""); s != "" && s != "0" && s != "0s" {
		lifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 0)
		if err != nil {
			return Ingest{}, err
		}
	}

	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Ingest{}, err
	}

	return Ingest{
		Common:          common,
		HTTPAddr:        env("HTTP_ADDR", ":8000"),
		Driver:          env("DB_DRIVER", "sqlite3"),
		DSN:             env("DB_DSN", ""),
		Path:            env("SQLITE_PATH", "data/aura.db"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
		LogSQL:          logSQL,
	}, nil
}
