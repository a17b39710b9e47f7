// Package bridge implements the client side of the robot bridge protocol:
// the handshake that claims exclusive custody of a remote rig under an
// experiment identity, and the per-episode step/reset exchanges.
package bridge

import (
	"context"
	"errors"

	"github.com/roverlab/robogym/vision"
)

// Server status values reported in handshake responses.
const (
	// StatusRunning means the rig is up and accepting experiments.
	StatusRunning = "running"
)

// Observation channel names on the wire.
const (
	ChannelDepth = "depth"
	ChannelRGB   = "rgb"
	ChannelRGBD  = "rgbd"
)

// Errors surfaced by the session protocol. Callers match them with errors.Is;
// the wrapped message carries the server-side detail.
var (
	// ErrHandshakeTimeout means no terminal handshake outcome was reached
	// within the server's availability window.
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrServerNotReady means the server answered the handshake with a
	// non-running status.
	ErrServerNotReady = errors.New("server not ready")

	// ErrRegistration means the server refused the registration: a resume
	// for an experiment it does not know, or a new experiment colliding
	// with an existing one.
	ErrRegistration = errors.New("experiment registration refused")

	// ErrSession is any failure after the session reached Running. It is
	// terminal: a partially executed physical action cannot be replayed,
	// so the session is never silently reconnected.
	ErrSession = errors.New("session failed")
)

// HandshakeRequest registers or resumes an experiment on the rig.
type HandshakeRequest struct {
	ExperimentID string `json:"experiment_id"`
	Resume       bool   `json:"resume"`
	ClientID     string `json:"client_id"`
}

// HandshakeResponse reports the rig status and whether the registration was
// acknowledged. Message carries human-readable detail either way.
type HandshakeResponse struct {
	Status     string `json:"status"`
	Registered bool   `json:"registered"`
	Message    string `json:"message"`
}

// StepRequest executes one discrete motion command on the robot.
type StepRequest struct {
	Action  int    `json:"action"`
	Channel string `json:"channel"`
}

// StepResponse carries the sensor snapshot taken after the action completed.
// Color and Depth are captured atomically on the server; whichever the
// requested channel does not need is omitted.
type StepResponse struct {
	Color  *vision.Frame `json:"color,omitempty"`
	Depth  *vision.Frame `json:"depth,omitempty"`
	Reward float64       `json:"reward"`
	Done   bool          `json:"done"`
}

// ResetRequest re-poses the robot and starts a fresh episode.
type ResetRequest struct {
	Channel string `json:"channel"`
}

// ResetResponse carries the observation immediately following the reset.
type ResetResponse struct {
	Color *vision.Frame `json:"color,omitempty"`
	Depth *vision.Frame `json:"depth,omitempty"`
}

// Client is the transport-level bridge collaborator. Implementations must
// surface a failed call as an error, never as a silently wrong value.
type Client interface {
	Handshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error)
	Step(ctx context.Context, req StepRequest) (StepResponse, error)
	Reset(ctx context.Context, req ResetRequest) (ResetResponse, error)
}
