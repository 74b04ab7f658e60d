package ble

import (
	"encoding/hex"
	"log/slog"
	"sync"

	"auramesh/internal/mesh"
	"auramesh/internal/protocol"
)

const dedupMaxIDsPerDevice = 500

// BeaconHandler converts leaf beacons into leaf-status frames and queues them
// on a mesh inbox. Repeated advertisements of one reading are dropped.
type BeaconHandler struct {
	codec  protocol.Codec
	inbox  *mesh.Inbox
	logger *slog.Logger

	dedupMu sync.Mutex
	seen    map[string]map[uint32]struct{}
}

func NewBeaconHandler(codec protocol.Codec, inbox *mesh.Inbox, logger *slog.Logger) *BeaconHandler {
	return &BeaconHandler{
		codec:  codec,
		inbox:  inbox,
		logger: logger,
		seen:   make(map[string]map[uint32]struct{}),
	}
}

// HandleMatch is safe to call from the scanner goroutine.
func (h *BeaconHandler) HandleMatch(m Match) {
	r, err := ParseBeacon(m.Data)
	if err != nil {
		h.logger.Debug("ble ignore non-beacon payload", "addr", m.Address, "error", err)
		return
	}

	if !h.firstSighting(m.Address, r.ReadingID) {
		return
	}

	frame, err := h.codec.Encode(protocol.LeafStatus(r.Temperature, r.Humidity))
	if err != nil {
		h.logger.Warn("ble encode leaf frame", "addr", m.Address, "error", err)
		return
	}
	h.inbox.Push(mesh.Frame{From: "ble:" + m.Address, Payload: frame})

	h.logger.Debug("ble beacon queued",
		"addr", m.Address,
		"reading_id", r.ReadingID,
		"rssi", m.RSSI,
		"temperature", r.Temperature,
		"humidity", r.Humidity,
		"data", hex.EncodeToString(m.Data),
	)
}

func (h *BeaconHandler) firstSighting(addr string, id uint32) bool {
	h.dedupMu.Lock()
	defer h.dedupMu.Unlock()

	ids := h.seen[addr]
	if ids == nil {
		ids = make(map[uint32]struct{})
		h.seen[addr] = ids
	}
	if _, ok := ids[id]; ok {
		return false
	}
	if len(ids) >= dedupMaxIDsPerDevice {
		ids = make(map[uint32]struct{})
		h.seen[addr] = ids
	}
	ids[id] = struct{}{}
	return true
}
