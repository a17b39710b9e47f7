package gym

import "testing"

// TestEpisodeTracker_Cap runs a full episode in which the backend never
// signals done: the cap must fire exactly at step 100 and reset the counter.
func TestEpisodeTracker_Cap(t *testing.T) {
	var tracker EpisodeTracker

	for i := 1; i <= MaxEpisodeSteps-1; i++ {
		tracker.BeforeStep()
		if done := tracker.AfterStep(false); done {
			t.Fatalf("done at step %d, want done only at %d", i, MaxEpisodeSteps)
		}
	}

	tracker.BeforeStep()
	if done := tracker.AfterStep(false); !done {
		t.Fatalf("step %d not done, cap did not fire", MaxEpisodeSteps)
	}
	if tracker.Steps() != 0 {
		t.Errorf("counter = %d after episode end, want 0", tracker.Steps())
	}
}

func TestEpisodeTracker_BackendDoneResetsCounter(t *testing.T) {
	var tracker EpisodeTracker

	tracker.BeforeStep()
	tracker.BeforeStep()
	if done := tracker.AfterStep(true); !done {
		t.Fatal("backend done was not propagated")
	}
	if tracker.Steps() != 0 {
		t.Errorf("counter = %d after backend done, want 0", tracker.Steps())
	}
}

func TestEpisodeTracker_Reset(t *testing.T) {
	var tracker EpisodeTracker
	tracker.BeforeStep()
	tracker.BeforeStep()
	tracker.Reset()
	if tracker.Steps() != 0 {
		t.Errorf("counter = %d after Reset, want 0", tracker.Steps())
	}
}
