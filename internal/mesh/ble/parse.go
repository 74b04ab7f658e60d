package ble

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Beacon payload format (little-endian): magic 0x01 0xA7, reading_id uint32,
// temperature float32, humidity float32 (14 bytes total).
const (
	beaconMagic0 = 0x01
	beaconMagic1 = 0xA7
	beaconLen    = 14
)

// BeaconPrefix is the manufacturer-data prefix leaf beacons carry.
var BeaconPrefix = []byte{beaconMagic0, beaconMagic1}

// ClimateReading is a parsed leaf beacon.
type ClimateReading struct {
	ReadingID   uint32
	Temperature float64
	Humidity    float64
}

// ParseBeacon parses leaf manufacturer data. Extra trailing bytes are ignored.
func ParseBeacon(data []byte) (*ClimateReading, error) {
	if len(data) < beaconLen {
		return nil, fmt.Errorf("payload too short: %d", len(data))
	}
	if data[0] != beaconMagic0 || data[1] != beaconMagic1 {
		return nil, fmt.Errorf("invalid magic: %02X %02X", data[0], data[1])
	}
	id := binary.LittleEndian.Uint32(data[2:6])
	temp := math.Float32frombits(binary.LittleEndian.Uint32(data[6:10]))
	hum := math.Float32frombits(binary.LittleEndian.Uint32(data[10:14]))
	return &ClimateReading{
		ReadingID:   id,
		Temperature: float64(temp),
		Humidity:    float64(hum),
	}, nil
}

// EncodeBeacon builds the manufacturer data a leaf advertises.
func EncodeBeacon(r ClimateReading) []byte {
	b := make([]byte, beaconLen)
	b[0], b[1] = beaconMagic0, beaconMagic1
	binary.LittleEndian.PutUint32(b[2:6], r.ReadingID)
	binary.LittleEndian.PutUint32(b[6:10], math.Float32bits(float32(r.Temperature)))
	binary.LittleEndian.PutUint32(b[10:14], math.Float32bits(float32(r.Humidity)))
	return b
}
