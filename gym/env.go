package gym

import (
	"context"
	"fmt"

	"github.com/roverlab/robogym/internal/bridge"
	"github.com/roverlab/robogym/internal/httputil"
	"github.com/roverlab/robogym/internal/monitoring"
	"github.com/roverlab/robogym/internal/render"
	"github.com/roverlab/robogym/internal/sim"
	"github.com/roverlab/robogym/internal/timeutil"
	"github.com/roverlab/robogym/vision"
)

// Config carries the construction parameters for an environment.
type Config struct {
	// ExperimentName is the caller-supplied experiment identity. Required.
	ExperimentName string
	// Resume attaches to an existing registration instead of creating a
	// new one.
	Resume bool
	// Channel selects the observation modality.
	Channel Channel

	// ServerURL is the base URL of the remote robot bridge. Ignored when
	// Simulated is set.
	ServerURL string
	// HTTPClient overrides the transport used to reach the bridge.
	HTTPClient httputil.HTTPClient
	// Clock overrides the clock used for handshake pacing. Tests use a
	// mock clock; production leaves this nil.
	Clock timeutil.Clock

	// Simulated selects the local simulator backend.
	Simulated bool
	// SimCommand launches the simulator process. Empty means a simulator
	// is already listening at SimServerURL.
	SimCommand []string
	// SimServerURL is the local simulator bridge address.
	SimServerURL string

	// DepthClip, when positive, clips depth observations to [0, DepthClip]
	// and rescales them to [0,1]. Zero passes depth through in metres.
	DepthClip float64

	// Recorder, when set, receives per-step telemetry.
	Recorder Recorder
	// RenderDir is where the human render target writes observation
	// snapshots. Empty disables rendering output.
	RenderDir string
}

// Recorder receives episode telemetry from the environment. Implementations
// must tolerate being called once per step of every episode.
type Recorder interface {
	StartEpisode(experiment, channel string) error
	RecordStep(step, action int, reward float64, done bool) error
}

// StepResult is the outcome of one environment step. Info is always empty:
// environment-internal diagnostics are withheld so an agent cannot exploit
// them as an extra learning signal.
type StepResult struct {
	Observation vision.Tensor
	Reward      float64
	Done        bool
	Info        map[string]string
}

// Env is the agent-facing environment. It owns exactly one backend session;
// sharing across environments is not permitted. The control loop is
// synchronous: Step and Reset block until the backend responds.
type Env struct {
	cfg      Config
	backend  backend
	tracker  EpisodeTracker
	renderer *render.Renderer
	lastObs  *vision.Tensor
	closed   bool
}

// New constructs an environment and performs the backend handshake. A
// handshake failure aborts construction entirely; the environment is not
// usable afterwards.
func New(ctx context.Context, cfg Config) (*Env, error) {
	if cfg.ExperimentName == "" {
		return nil, fmt.Errorf("experiment name must not be empty")
	}
	if cfg.Channel.Channels() == 0 {
		return nil, fmt.Errorf("unknown channel mode %d", cfg.Channel)
	}

	var b backend
	if cfg.Simulated {
		b = sim.New(sim.Config{
			Command:    cfg.SimCommand,
			ServerURL:  cfg.SimServerURL,
			HTTPClient: cfg.HTTPClient,
			Clock:      cfg.Clock,
			Experiment: cfg.ExperimentName,
		})
	} else {
		client := bridge.NewHTTPBridge(cfg.HTTPClient, cfg.ServerURL)
		session := bridge.NewSession(client, cfg.Clock, cfg.ExperimentName, cfg.Resume)
		b = &remoteBackend{session: session}
	}

	return newWithBackend(ctx, cfg, b)
}

// newWithBackend finishes construction against an already-built backend.
// Tests use it to substitute a mock.
func newWithBackend(ctx context.Context, cfg Config, b backend) (*Env, error) {
	monitoring.Logf("gym: waiting to connect to the environment server")
	msg, err := b.Connect(ctx)
	if err != nil {
		b.Close()
		return nil, err
	}
	if msg != "" {
		monitoring.Logf("gym: %s", msg)
	}
	monitoring.Logf("gym: environment started for experiment %q (%s)", cfg.ExperimentName, cfg.Channel)

	e := &Env{cfg: cfg, backend: b}
	if cfg.RenderDir != "" {
		e.renderer = render.New(cfg.RenderDir)
	}
	return e, nil
}

// Reset clears the episode state, re-poses the robot, and returns the first
// observation of the new episode.
func (e *Env) Reset(ctx context.Context) (vision.Tensor, error) {
	if e.closed {
		return vision.Tensor{}, fmt.Errorf("%w: environment closed", ErrSession)
	}

	e.tracker.Reset()
	resp, err := e.backend.Reset(ctx, e.cfg.Channel.wireName())
	if err != nil {
		return vision.Tensor{}, err
	}

	obs, err := e.observe(resp.Color, resp.Depth)
	if err != nil {
		return vision.Tensor{}, err
	}
	e.lastObs = &obs

	if e.cfg.Recorder != nil {
		if err := e.cfg.Recorder.StartEpisode(e.cfg.ExperimentName, e.cfg.Channel.String()); err != nil {
			monitoring.Logf("gym: telemetry start failed: %v", err)
		}
	}
	monitoring.Logf("gym: environment reset complete")
	return obs, nil
}

// Step decodes and executes one action, returning the resulting observation,
// reward, and effective done flag. The done flag is forced true at the
// episode step cap regardless of the backend's own signal.
func (e *Env) Step(ctx context.Context, rawAction interface{}) (StepResult, error) {
	if e.closed {
		return StepResult{}, fmt.Errorf("%w: environment closed", ErrSession)
	}

	action, err := DecodeAction(rawAction)
	if err != nil {
		return StepResult{}, err
	}

	count := e.tracker.BeforeStep()
	monitoring.Logf("gym: step %d (%s)", count, action)

	resp, err := e.backend.Step(ctx, int(action), e.cfg.Channel.wireName())
	if err != nil {
		return StepResult{}, err
	}

	done := e.tracker.AfterStep(resp.Done)

	obs, err := e.observe(resp.Color, resp.Depth)
	if err != nil {
		return StepResult{}, err
	}
	e.lastObs = &obs

	if e.cfg.Recorder != nil {
		if err := e.cfg.Recorder.RecordStep(count, int(action), resp.Reward, done); err != nil {
			monitoring.Logf("gym: telemetry record failed: %v", err)
		}
	}
	if done {
		monitoring.Logf("gym: episode complete at step %d", count)
	}

	return StepResult{
		Observation: obs,
		Reward:      resp.Reward,
		Done:        done,
		Info:        map[string]string{},
	}, nil
}

// Render displays the most recent observation. Only the synchronous "human"
// mode is defined; it writes a snapshot image under the configured render
// directory. Rendering before the first observation is a no-op.
func (e *Env) Render(mode string) error {
	if mode != "human" {
		return fmt.Errorf("%w: %q", ErrUnsupportedRenderMode, mode)
	}
	if e.lastObs == nil || e.renderer == nil {
		return nil
	}
	path, err := e.renderer.Render(*e.lastObs)
	if err != nil {
		return err
	}
	monitoring.Logf("gym: observation rendered to %s", path)
	return nil
}

// Close releases the backend session and, for simulated backends, tears down
// the simulator process tree. Safe to call more than once.
func (e *Env) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.backend.Close()
}

// observe normalizes the raw frame(s) into the configured observation shape.
// A response missing a frame the channel mode needs is a bad frame: the
// bridge captures colour and depth atomically, so a partial snapshot means
// the capture cannot be trusted.
func (e *Env) observe(color, depth *vision.Frame) (vision.Tensor, error) {
	switch e.cfg.Channel {
	case RGBOnly:
		if color == nil {
			return vision.Tensor{}, fmt.Errorf("%w: response missing color frame", ErrBadFrame)
		}
		return vision.NormalizeColor(*color, FrameWidth, FrameHeight, 0)

	case DepthOnly:
		if depth == nil {
			return vision.Tensor{}, fmt.Errorf("%w: response missing depth frame", ErrBadFrame)
		}
		return vision.NormalizeDepth(*depth, FrameWidth, FrameHeight, e.cfg.DepthClip)

	case RGBD:
		if color == nil || depth == nil {
			return vision.Tensor{}, fmt.Errorf("%w: rgbd response missing a frame", ErrBadFrame)
		}
		rgb, err := vision.NormalizeColor(*color, FrameWidth, FrameHeight, 0)
		if err != nil {
			return vision.Tensor{}, err
		}
		d, err := vision.NormalizeDepth(*depth, FrameWidth, FrameHeight, e.cfg.DepthClip)
		if err != nil {
			return vision.Tensor{}, err
		}
		return vision.ConcatChannels(rgb, d)

	default:
		return vision.Tensor{}, fmt.Errorf("%w: unknown channel mode %d", ErrBadFrame, e.cfg.Channel)
	}
}
