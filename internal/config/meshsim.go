package config

import (
	"fmt"
	"time"
)

// MeshSim runs the three nodes in one process over an in-memory mesh.
type MeshSim struct {
	Common
	Labels Labels

	// UplinkBaseURL is empty unless an ingest service should receive readings.
	UplinkBaseURL string
	UplinkTimeout time.Duration
	CycleInterval time.Duration
	LoopInterval  time.Duration
	StageDuration time.Duration
}

func LoadMeshSim() (MeshSim, error) {
	common, err := loadCommon()
	if err != nil {
		return MeshSim{}, err
	}
	labels, err := loadLabels()
	if err != nil {
		return MeshSim{}, err
	}
	uplinkTimeout, err := envDuration("UPLINK_TIMEOUT", 1500*time.Millisecond)
	if err != nil {
		return MeshSim{}, err
	}
	if uplinkTimeout > MaxUplinkTimeout {
		return MeshSim{}, fmt.Errorf("UPLINK_TIMEOUT must be at most %v, got %v", MaxUplinkTimeout, uplinkTimeout)
	}
	cycle, err := envDuration("CYCLE_INTERVAL", 10*time.Second)
	if err != nil {
		return MeshSim{}, err
	}
	loopInterval, err := envDuration("LOOP_INTERVAL", 5*time.Millisecond)
	if err != nil {
		return MeshSim{}, err
	}
	stage, err := envDuration("STAGE_DURATION", 30*time.Second)
	if err != nil {
		return MeshSim{}, err
	}

	return MeshSim{
		Common:        common,
		Labels:        labels,
		UplinkBaseURL: envRaw("UPLINK_BASE_URL", ""),
		UplinkTimeout: uplinkTimeout,
		CycleInterval: cycle,
		LoopInterval:  loopInterval,
		StageDuration: stage,
	}, nil
}
