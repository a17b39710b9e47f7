package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/roverlab/robogym/internal/bridge"
	"github.com/roverlab/robogym/internal/httputil"
	"github.com/roverlab/robogym/internal/monitoring"
	"github.com/roverlab/robogym/internal/timeutil"
)

// DefaultServerURL is where a locally launched simulator serves the bridge
// protocol.
const DefaultServerURL = "http://127.0.0.1:7909"

// Config describes the simulated backend.
type Config struct {
	// Command launches the simulator process. Empty means one is already
	// listening at ServerURL.
	Command []string
	// ServerURL is the simulator's bridge address. Defaults to
	// DefaultServerURL.
	ServerURL string
	// HTTPClient overrides the transport. Nil uses the default client.
	HTTPClient httputil.HTTPClient
	// Clock paces the handshake loop. Nil uses the real clock.
	Clock timeutil.Clock
	// Experiment is the experiment identity forwarded in the handshake.
	Experiment string
}

// Backend drives a local simulator through the bridge protocol. The launched
// process tree is a scoped resource released on Close; a watcher goroutine
// detects abnormal simulator exit and sinks the session, but never mutates
// any other session state.
type Backend struct {
	cfg      Config
	http     httputil.HTTPClient
	baseURL  string
	launcher *Launcher
	session  *bridge.Session
}

// New creates an unconnected simulated backend.
func New(cfg Config) *Backend {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &Backend{cfg: cfg, http: client, baseURL: cfg.ServerURL}
}

// Connect launches the simulator (when configured with a command) and runs
// the same handshake gate as the remote backend against it. The handshake
// retry loop doubles as the wait for the freshly launched process to start
// listening.
func (b *Backend) Connect(ctx context.Context) (string, error) {
	if len(b.cfg.Command) > 0 {
		l, err := Launch(b.cfg.Command)
		if err != nil {
			return "", fmt.Errorf("%w: %v", bridge.ErrServerNotReady, err)
		}
		b.launcher = l
	}

	client := bridge.NewHTTPBridge(b.http, b.baseURL)
	b.session = bridge.NewSession(client, b.cfg.Clock, b.cfg.Experiment, false)

	if b.launcher != nil {
		// Supervisory side channel only: on abnormal exit the watcher
		// may signal the session into Failed, nothing more.
		go func() {
			<-b.launcher.Done()
			if err := b.launcher.ExitError(); err != nil {
				b.session.Fail(fmt.Errorf("simulator exited: %v", err))
			} else {
				b.session.Fail(fmt.Errorf("simulator exited"))
			}
		}()
	}

	msg, err := b.session.Handshake(ctx)
	if err != nil {
		if b.launcher != nil {
			b.launcher.Terminate()
		}
		return "", err
	}
	return msg, nil
}

// Step forwards one motion command to the simulator.
func (b *Backend) Step(ctx context.Context, action int, channel string) (bridge.StepResponse, error) {
	return b.session.Step(ctx, action, channel)
}

// Reset pauses physics, re-poses the robot through the bridge reset, and
// resumes physics. The pause keeps the robot from drifting while it is moved.
func (b *Backend) Reset(ctx context.Context, channel string) (bridge.ResetResponse, error) {
	if err := b.physics(ctx, "pause"); err != nil {
		monitoring.Logf("sim: pause physics failed: %v", err)
	}

	resp, err := b.session.Reset(ctx, channel)

	if perr := b.physics(ctx, "resume"); perr != nil {
		monitoring.Logf("sim: resume physics failed: %v", perr)
	}
	return resp, err
}

// Close releases the session and the simulator process tree. Idempotent.
func (b *Backend) Close() error {
	if b.session != nil {
		b.session.Close()
	}
	if b.launcher != nil {
		return b.launcher.Terminate()
	}
	return nil
}

// physics calls the simulator's pause/resume-physics endpoint. These are
// opaque remote calls; only success or failure matters.
func (b *Backend) physics(ctx context.Context, op string) error {
	return b.post(ctx, "/v1/physics/"+op, struct{}{})
}

// SetPose moves the robot model to an explicit pose. Used by tooling that
// scripts scenario starts; the ordinary reset path lets the simulator pick
// the pose.
func (b *Backend) SetPose(ctx context.Context, x, y, yaw float64) error {
	return b.post(ctx, "/v1/pose", map[string]float64{"x": x, "y": y, "yaw": yaw})
}

func (b *Backend) post(ctx context.Context, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return nil
}
