// Package telemetry records episode and step data from environment runs into
// a local SQLite database for later analysis.
package telemetry

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

// Store persists experiments, episodes, and steps. It implements the gym
// package's Recorder interface.
type Store struct {
	db *sql.DB

	mu        sync.Mutex
	episodeID int64
	steps     int
	ret       float64
}

// Open opens (creating if needed) the telemetry database at path and brings
// its schema up to the latest embedded migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// StartEpisode opens a new episode row. Any episode left open is finished
// first.
func (s *Store) StartEpisode(experiment, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.episodeID != 0 {
		if err := s.finishLocked(); err != nil {
			return err
		}
	}

	res, err := s.db.Exec(
		`INSERT INTO episodes (experiment, channel) VALUES (?, ?)`,
		experiment, channel,
	)
	if err != nil {
		return fmt.Errorf("starting episode: %w", err)
	}
	s.episodeID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	s.steps = 0
	s.ret = 0
	return nil
}

// RecordStep appends one step to the open episode, finishing the episode when
// done is true. Steps arriving with no open episode are dropped silently so a
// caller that never resets still works.
func (s *Store) RecordStep(step, action int, reward float64, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.episodeID == 0 {
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO steps (episode_id, step, action, reward, done) VALUES (?, ?, ?, ?, ?)`,
		s.episodeID, step, action, reward, done,
	)
	if err != nil {
		return fmt.Errorf("recording step: %w", err)
	}

	s.steps++
	s.ret += reward
	if done {
		return s.finishLocked()
	}
	return nil
}

// finishLocked stamps the open episode and clears the cursor. Callers hold
// s.mu.
func (s *Store) finishLocked() error {
	_, err := s.db.Exec(
		`UPDATE episodes SET steps = ?, total_reward = ?, finished_at = ? WHERE episode_id = ?`,
		s.steps, s.ret, time.Now().UTC(), s.episodeID,
	)
	s.episodeID = 0
	s.steps = 0
	s.ret = 0
	if err != nil {
		return fmt.Errorf("finishing episode: %w", err)
	}
	return nil
}

// EpisodeSummary is one finished episode's aggregate.
type EpisodeSummary struct {
	ID        int64     `json:"episode_id"`
	Steps     int       `json:"steps"`
	Return    float64   `json:"return"`
	StartedAt time.Time `json:"started_at"`
}

// Episodes lists finished episodes for an experiment, oldest first.
func (s *Store) Episodes(experiment string) ([]EpisodeSummary, error) {
	rows, err := s.db.Query(
		`SELECT episode_id, steps, total_reward, started_at
		 FROM episodes
		 WHERE experiment = ? AND finished_at IS NOT NULL
		 ORDER BY episode_id`,
		experiment,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var e EpisodeSummary
		if err := rows.Scan(&e.ID, &e.Steps, &e.Return, &e.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarises the returns of an experiment's finished episodes.
type Stats struct {
	Episodes   int     `json:"episodes"`
	MeanReturn float64 `json:"mean_return"`
	StdReturn  float64 `json:"std_return"`
	BestReturn float64 `json:"best_return"`
}

// ExperimentStats computes summary statistics over episode returns.
func (s *Store) ExperimentStats(experiment string) (Stats, error) {
	episodes, err := s.Episodes(experiment)
	if err != nil {
		return Stats{}, err
	}
	if len(episodes) == 0 {
		return Stats{}, nil
	}

	returns := make([]float64, len(episodes))
	best := episodes[0].Return
	for i, e := range episodes {
		returns[i] = e.Return
		if e.Return > best {
			best = e.Return
		}
	}

	st := Stats{
		Episodes:   len(episodes),
		MeanReturn: stat.Mean(returns, nil),
		BestReturn: best,
	}
	if len(returns) > 1 {
		st.StdReturn = stat.StdDev(returns, nil)
	}
	return st, nil
}

// Close finishes any open episode and closes the database. A failed final
// episode stamp is reported, not swallowed; the database is closed either way.
func (s *Store) Close() error {
	s.mu.Lock()
	var finishErr error
	if s.episodeID != 0 {
		finishErr = s.finishLocked()
	}
	s.mu.Unlock()

	closeErr := s.db.Close()
	if finishErr != nil {
		return finishErr
	}
	return closeErr
}
