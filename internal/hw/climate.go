package hw

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// BME280 is the leaf's climate sensor.
type BME280 struct {
	dev *bmxx80.Dev
}

func NewBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bme280 at %#x: %w", addr, err)
	}
	return &BME280{dev: dev}, nil
}

func (b *BME280) ReadClimate() (float64, float64, error) {
	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return 0, 0, fmt.Errorf("bme280 sense: %w", err)
	}
	return env.Temperature.Celsius(), float64(env.Humidity) / float64(physic.PercentRH), nil
}

func (b *BME280) Close() error { return b.dev.Halt() }
