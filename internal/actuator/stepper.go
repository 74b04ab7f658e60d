package actuator

import "auramesh/internal/pins"

// fullStep is the two-coil-on sequence for a 4-wire unipolar driver.
var fullStep = [4][4]bool{
	{true, false, true, false},
	{false, true, true, false},
	{false, true, false, true},
	{true, false, false, true},
}

// CoilStepper drives four coil outputs through the full-step sequence. For a
// 28BYJ-48 on a ULN2003 board pass the pins in IN1, IN3, IN2, IN4 order.
type CoilStepper struct {
	coils [4]pins.Output
	pos   int
}

func NewCoilStepper(coils [4]pins.Output) *CoilStepper {
	return &CoilStepper{coils: coils}
}

func (c *CoilStepper) Step(dir int) {
	if dir >= 0 {
		c.pos = (c.pos + 1) % 4
	} else {
		c.pos = (c.pos + 3) % 4
	}
	for i, on := range fullStep[c.pos] {
		c.coils[i].Set(on)
	}
}

// Release de-energises every coil.
func (c *CoilStepper) Release() {
	for _, coil := range c.coils {
		coil.Set(false)
	}
}
