package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roverlab/robogym/internal/monitoring"
	"github.com/roverlab/robogym/internal/timeutil"
)

// HandshakeTimeout is the absolute bound on the handshake. It matches the
// server's documented availability window: a rig that is offline or occupied
// by another experiment will not come up for this client, and the client must
// not hang indefinitely holding agent-side resources.
const HandshakeTimeout = 60 * time.Second

// handshakePollInterval paces the handshake retry loop so an unready server
// is not hammered with requests.
const handshakePollInterval = 500 * time.Millisecond

// State is the connection state of a session.
type State int

const (
	// Disconnected is the initial state before the handshake starts.
	Disconnected State = iota
	// Handshaking means the registration exchange is in progress.
	Handshaking
	// Running means the session holds custody of the robot.
	Running
	// Failed is a sink state. A failed session is never reconnected.
	Failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Running:
		return "running"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one authenticated, possibly long-lived claim on a remote robot.
// It owns the connection state machine; every exchange after Running is
// attempted at most once, and any failure sinks the session into Failed.
type Session struct {
	client       Client
	clock        timeutil.Clock
	experimentID string
	resume       bool
	clientID     string

	mu        sync.Mutex
	state     State
	heartbeat string // last status value reported by the server
	failure   error
}

// NewSession creates a session for the given experiment identity. The session
// stays Disconnected until Handshake is called.
func NewSession(client Client, clock timeutil.Clock, experimentID string, resume bool) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Session{
		client:       client,
		clock:        clock,
		experimentID: experimentID,
		resume:       resume,
		clientID:     uuid.NewString(),
		state:        Disconnected,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Heartbeat returns the last status value the server reported.
func (s *Session) Heartbeat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeat
}

// Handshake polls the server until the registration reaches a terminal
// outcome, and returns the server's informational message on success.
//
// Outcomes: running + registered moves the session to Running; running
// without registration fails with ErrRegistration carrying the server's
// message; any other reported status fails immediately with
// ErrServerNotReady. A transport error counts as "no answer yet" and the
// loop keeps polling until HandshakeTimeout has elapsed since the first
// attempt, at which point it fails with ErrHandshakeTimeout.
func (s *Session) Handshake(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != Disconnected {
		state := s.state
		s.mu.Unlock()
		return "", fmt.Errorf("%w: handshake from state %s", ErrSession, state)
	}
	s.state = Handshaking
	s.mu.Unlock()

	req := HandshakeRequest{
		ExperimentID: s.experimentID,
		Resume:       s.resume,
		ClientID:     s.clientID,
	}

	start := s.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return "", s.fail(fmt.Errorf("%w: %v", ErrHandshakeTimeout, err))
		}

		resp, err := s.client.Handshake(ctx, req)
		if err == nil {
			s.mu.Lock()
			s.heartbeat = resp.Status
			s.mu.Unlock()

			switch {
			case resp.Status == StatusRunning && resp.Registered:
				s.mu.Lock()
				s.state = Running
				s.mu.Unlock()
				monitoring.Logf("bridge: session running for experiment %q", s.experimentID)
				return resp.Message, nil
			case resp.Status == StatusRunning:
				return "", s.fail(fmt.Errorf("%w: %s", ErrRegistration, resp.Message))
			default:
				return "", s.fail(fmt.Errorf("%w: server status %q", ErrServerNotReady, resp.Status))
			}
		}
		monitoring.Logf("bridge: handshake attempt failed, retrying: %v", err)

		if s.clock.Since(start) > HandshakeTimeout {
			return "", s.fail(ErrHandshakeTimeout)
		}
		s.clock.Sleep(handshakePollInterval)
	}
}

// Step sends one motion command and blocks until the server reports the
// resulting sensor snapshot. There is no retry and no deadline: a physical
// action may legitimately outlast a network round-trip, and a false-timeout
// abort would leave the robot mid-motion with the client unaware. Any failure
// is fatal to the session.
func (s *Session) Step(ctx context.Context, action int, channel string) (StepResponse, error) {
	if err := s.requireRunning("step"); err != nil {
		return StepResponse{}, err
	}

	resp, err := s.client.Step(ctx, StepRequest{Action: action, Channel: channel})
	if err != nil {
		return StepResponse{}, s.fail(fmt.Errorf("%w: step: %v", ErrSession, err))
	}
	return resp, nil
}

// Reset asks the server to re-pose the robot and returns the observation
// immediately following the reset. Legal at any point in Running, including
// mid-episode.
func (s *Session) Reset(ctx context.Context, channel string) (ResetResponse, error) {
	if err := s.requireRunning("reset"); err != nil {
		return ResetResponse{}, err
	}

	resp, err := s.client.Reset(ctx, ResetRequest{Channel: channel})
	if err != nil {
		return ResetResponse{}, s.fail(fmt.Errorf("%w: reset: %v", ErrSession, err))
	}
	return resp, nil
}

// Fail sinks the session into Failed from the outside. It exists for the
// simulator process watcher, which may signal an abnormal exit but must not
// otherwise touch session state.
func (s *Session) Fail(err error) {
	s.fail(fmt.Errorf("%w: %v", ErrSession, err))
}

// Failure returns the error that sank the session, or nil.
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Close releases the claim. A closed session behaves like a failed one: any
// further step or reset is rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Failed {
		return
	}
	s.state = Failed
	if s.failure == nil {
		s.failure = fmt.Errorf("%w: session closed", ErrSession)
	}
}

func (s *Session) requireRunning(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return nil
	}
	if s.failure != nil {
		return fmt.Errorf("%s: %w", op, s.failure)
	}
	return fmt.Errorf("%w: %s in state %s", ErrSession, op, s.state)
}

// fail records the first failure and moves the session to Failed.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Failed
	if s.failure == nil {
		s.failure = err
	}
	monitoring.Logf("bridge: session failed: %v", err)
	return err
}
