package gym

// MaxEpisodeSteps is the hard per-episode step cap. A backend that never
// signals completion cannot produce an unbounded episode.
const MaxEpisodeSteps = 100

// EpisodeTracker enforces the episode-length policy. It is orthogonal to the
// session protocol: the backend reports its own done signal and the tracker
// only ever tightens it.
type EpisodeTracker struct {
	steps int
}

// BeforeStep counts the step about to be taken and returns the new count.
func (t *EpisodeTracker) BeforeStep() int {
	t.steps++
	return t.steps
}

// AfterStep combines the backend's done signal with the step cap. The counter
// returns to zero exactly when the effective done is true.
func (t *EpisodeTracker) AfterStep(backendDone bool) bool {
	done := backendDone
	if t.steps >= MaxEpisodeSteps {
		done = true
	}
	if done {
		t.steps = 0
	}
	return done
}

// Reset clears the counter for a fresh episode.
func (t *EpisodeTracker) Reset() {
	t.steps = 0
}

// Steps returns the number of steps taken in the current episode.
func (t *EpisodeTracker) Steps() int {
	return t.steps
}
