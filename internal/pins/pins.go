// Package pins holds the digital line abstractions shared by node logic and
// the hardware backends.
package pins

// Input is a digital line the node samples.
type Input interface {
	Get() bool
}

// Output is a digital line the node drives.
type Output interface {
	Set(high bool)
}

// Nop is an Output that discards writes, used where a board has no such line.
type Nop struct{}

func (Nop) Set(bool) {}

// Fanout drives several outputs as one line.
type Fanout []Output

func (f Fanout) Set(high bool) {
	for _, o := range f {
		o.Set(high)
	}
}
