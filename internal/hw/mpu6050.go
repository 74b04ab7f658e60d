package hw

import (
	"encoding/binary"
	"fmt"

	"tinygo.org/x/drivers"

	"auramesh/internal/sensors"
)

const (
	mpuRegAccelConfig = 0x1C
	mpuRegAccelXOut   = 0x3B
	mpuRegPwrMgmt1    = 0x6B
	mpuRegWhoAmI      = 0x75

	// ±8 g full scale.
	mpuAccelRange8G = 0x10
	mpuLSBPerG      = 4096.0
)

// MPU6050 reads acceleration from an InvenSense MPU-6050.
type MPU6050 struct {
	bus  drivers.I2C
	addr uint16
}

// NewMPU6050 wakes the device and selects the ±8 g range. A missing device is
// reported as an error; callers run without vibration sensing in that case.
func NewMPU6050(bus drivers.I2C, addr uint16) (*MPU6050, error) {
	who := make([]byte, 1)
	if err := readRegister(bus, addr, mpuRegWhoAmI, who); err != nil {
		return nil, fmt.Errorf("mpu6050 at %#x: %w", addr, err)
	}
	if err := writeRegister(bus, addr, mpuRegPwrMgmt1, 0); err != nil {
		return nil, fmt.Errorf("mpu6050 wake: %w", err)
	}
	if err := writeRegister(bus, addr, mpuRegAccelConfig, mpuAccelRange8G); err != nil {
		return nil, fmt.Errorf("mpu6050 range: %w", err)
	}
	return &MPU6050{bus: bus, addr: addr}, nil
}

// Acceleration returns m/s² on each axis.
func (m *MPU6050) Acceleration() (float64, float64, float64, error) {
	buf := make([]byte, 6)
	if err := readRegister(m.bus, m.addr, mpuRegAccelXOut, buf); err != nil {
		return 0, 0, 0, fmt.Errorf("mpu6050 read: %w", err)
	}
	conv := func(b []byte) float64 {
		return float64(int16(binary.BigEndian.Uint16(b))) / mpuLSBPerG * sensors.StandardGravity
	}
	return conv(buf[0:2]), conv(buf[2:4]), conv(buf[4:6]), nil
}
