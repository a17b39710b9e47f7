package gym

import (
	"errors"

	"github.com/roverlab/robogym/internal/bridge"
	"github.com/roverlab/robogym/vision"
)

// Environment error taxonomy. Match with errors.Is. The session errors are
// aliases of the bridge package's sentinels so callers only need this package.
var (
	// ErrInvalidAction is a malformed or out-of-range action. The call is
	// rejected before any network or process interaction; retry with a
	// valid action.
	ErrInvalidAction = errors.New("invalid action")

	// ErrUnsupportedRenderMode is a render call with a mode other than
	// "human".
	ErrUnsupportedRenderMode = errors.New("unsupported render mode")

	// ErrBadFrame is a malformed sensor frame. The episode that produced
	// it should be treated as corrupted.
	ErrBadFrame = vision.ErrBadFrame

	// ErrHandshakeTimeout, ErrServerNotReady and ErrRegistration are fatal
	// to environment construction.
	ErrHandshakeTimeout = bridge.ErrHandshakeTimeout
	ErrServerNotReady   = bridge.ErrServerNotReady
	ErrRegistration     = bridge.ErrRegistration

	// ErrSession is any failure while the session is running. Fatal to the
	// environment instance; sessions are never silently reconnected.
	ErrSession = bridge.ErrSession
)
