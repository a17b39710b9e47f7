package telemetry

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/roverlab/robogym/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func runEpisode(t *testing.T, s *Store, rewards []float64) {
	t.Helper()
	testutil.AssertNoError(t, s.StartEpisode("exp-1", "rgb"))
	for i, r := range rewards {
		done := i == len(rewards)-1
		testutil.AssertNoError(t, s.RecordStep(i+1, i%4, r, done))
	}
}

func TestStore_EpisodeLifecycle(t *testing.T) {
	store := newTestStore(t)
	runEpisode(t, store, []float64{0, 0, 1, 0, 2.5})

	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 1 {
		t.Fatalf("episodes = %d, want 1", len(episodes))
	}
	if episodes[0].Steps != 5 {
		t.Errorf("steps = %d, want 5", episodes[0].Steps)
	}
	if episodes[0].Return != 3.5 {
		t.Errorf("return = %v, want 3.5", episodes[0].Return)
	}
}

func TestStore_OpenEpisodeExcluded(t *testing.T) {
	store := newTestStore(t)
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "depth"))
	testutil.AssertNoError(t, store.RecordStep(1, 2, 0.5, false))

	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 0 {
		t.Errorf("unfinished episode listed: %+v", episodes)
	}
}

// TestStore_RestartFinishesOpenEpisode covers the reset-mid-episode path: a
// new StartEpisode closes whatever was left open so no row dangles forever.
func TestStore_RestartFinishesOpenEpisode(t *testing.T) {
	store := newTestStore(t)
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "rgb"))
	testutil.AssertNoError(t, store.RecordStep(1, 0, 1.0, false))
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "rgb"))

	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 1 {
		t.Fatalf("episodes = %d, want 1 (the abandoned one)", len(episodes))
	}
	if episodes[0].Steps != 1 || episodes[0].Return != 1.0 {
		t.Errorf("abandoned episode = %+v", episodes[0])
	}
}

func TestStore_StepWithoutEpisodeDropped(t *testing.T) {
	store := newTestStore(t)
	testutil.AssertNoError(t, store.RecordStep(1, 0, 5.0, true))

	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 0 {
		t.Errorf("orphan step produced an episode: %+v", episodes)
	}
}

func TestStore_ExperimentStats(t *testing.T) {
	store := newTestStore(t)
	runEpisode(t, store, []float64{1, 1})       // return 2
	runEpisode(t, store, []float64{0, 4})       // return 4
	runEpisode(t, store, []float64{3, 3, 3, 3}) // return 12

	stats, err := store.ExperimentStats("exp-1")
	testutil.AssertNoError(t, err)
	if stats.Episodes != 3 {
		t.Errorf("episodes = %d, want 3", stats.Episodes)
	}
	if stats.MeanReturn != 6.0 {
		t.Errorf("mean = %v, want 6.0", stats.MeanReturn)
	}
	if stats.BestReturn != 12.0 {
		t.Errorf("best = %v, want 12.0", stats.BestReturn)
	}
	// Sample standard deviation of {2, 4, 12}.
	want := math.Sqrt(((2.0-6)*(2.0-6) + (4.0-6)*(4.0-6) + (12.0-6)*(12.0-6)) / 2)
	if math.Abs(stats.StdReturn-want) > 1e-9 {
		t.Errorf("std = %v, want %v", stats.StdReturn, want)
	}
}

func TestStore_StatsEmpty(t *testing.T) {
	store := newTestStore(t)
	stats, err := store.ExperimentStats("exp-1")
	testutil.AssertNoError(t, err)
	if stats.Episodes != 0 || stats.MeanReturn != 0 {
		t.Errorf("stats on empty store = %+v", stats)
	}
}

func TestStore_ExperimentsIsolated(t *testing.T) {
	store := newTestStore(t)
	runEpisode(t, store, []float64{1})

	testutil.AssertNoError(t, store.StartEpisode("exp-other", "rgbd"))
	testutil.AssertNoError(t, store.RecordStep(1, 3, 9.0, true))

	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 1 {
		t.Fatalf("episodes for exp-1 = %d, want 1", len(episodes))
	}
	if episodes[0].Return != 1.0 {
		t.Errorf("exp-1 return = %v, cross-experiment leak", episodes[0].Return)
	}
}

// TestStore_OpenAppliesMigrations asserts Open brings a fresh database to the
// latest embedded schema version, and that reopening is a no-op rather than a
// failure.
func TestStore_OpenAppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	store, err := Open(path)
	testutil.AssertNoError(t, err)

	version, dirty, err := store.MigrateVersion()
	testutil.AssertNoError(t, err)
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
	if dirty {
		t.Error("schema left dirty after Open")
	}
	testutil.AssertNoError(t, store.Close())

	// Second open runs against an already-migrated database.
	store, err = Open(path)
	testutil.AssertNoError(t, err)
	defer store.Close()
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "rgb"))
}

func TestStore_MigrateDownUp(t *testing.T) {
	store := newTestStore(t)
	runEpisode(t, store, []float64{1})

	testutil.AssertNoError(t, store.MigrateDown())
	version, _, err := store.MigrateVersion()
	testutil.AssertNoError(t, err)
	if version != 0 {
		t.Errorf("schema version after down = %d, want 0", version)
	}

	testutil.AssertNoError(t, store.MigrateUp())
	episodes, err := store.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 0 {
		t.Errorf("episodes survived a schema rebuild: %+v", episodes)
	}
}

// TestStore_CloseReportsFailedStamp closes the database out from under the
// store: the final episode stamp cannot be written, and Close must say so.
func TestStore_CloseReportsFailedStamp(t *testing.T) {
	store := newTestStore(t)
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "rgb"))
	testutil.AssertNoError(t, store.RecordStep(1, 0, 1.0, false))

	testutil.AssertNoError(t, store.db.Close())
	testutil.AssertError(t, store.Close())
}

func TestStore_CloseFinishesOpenEpisode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	store, err := Open(path)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, store.StartEpisode("exp-1", "rgb"))
	testutil.AssertNoError(t, store.RecordStep(1, 0, 2.0, false))
	testutil.AssertNoError(t, store.Close())

	reopened, err := Open(path)
	testutil.AssertNoError(t, err)
	defer reopened.Close()

	episodes, err := reopened.Episodes("exp-1")
	testutil.AssertNoError(t, err)
	if len(episodes) != 1 {
		t.Fatalf("episodes after reopen = %d, want 1", len(episodes))
	}
}
