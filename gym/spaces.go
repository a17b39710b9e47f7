package gym

// Box describes a bounded multi-dimensional observation space.
type Box struct {
	Low   float64
	High  float64
	Shape [4]int
}

// Discrete describes a finite action space {0, ..., N-1}.
type Discrete struct {
	N int
}

// ObservationSpace derives the observation space for a channel mode. Values
// are in native sensor units unless the environment is configured to
// clip-and-normalize depth.
func ObservationSpace(c Channel) Box {
	return Box{Low: 0, High: 255, Shape: c.ObservationShape()}
}

// ActionSpace is the fixed four-command discrete space.
func ActionSpace() Discrete {
	return Discrete{N: NumActions}
}
