package gym

import (
	"context"

	"github.com/roverlab/robogym/internal/bridge"
)

// backend is the capability interface behind the facade. The concrete variant
// (remote rig or local simulator) is selected once at construction and never
// switched at runtime.
type backend interface {
	// Connect establishes the claim on the robot and returns the server's
	// informational message.
	Connect(ctx context.Context) (string, error)
	// Step executes one motion command and returns the raw snapshot.
	Step(ctx context.Context, action int, channel string) (bridge.StepResponse, error)
	// Reset re-poses the robot and returns the raw post-reset snapshot.
	Reset(ctx context.Context, channel string) (bridge.ResetResponse, error)
	// Close releases backend resources. Idempotent.
	Close() error
}

// remoteBackend drives a remotely hosted physical rig through the bridge
// session protocol.
type remoteBackend struct {
	session *bridge.Session
}

func (b *remoteBackend) Connect(ctx context.Context) (string, error) {
	return b.session.Handshake(ctx)
}

func (b *remoteBackend) Step(ctx context.Context, action int, channel string) (bridge.StepResponse, error) {
	return b.session.Step(ctx, action, channel)
}

func (b *remoteBackend) Reset(ctx context.Context, channel string) (bridge.ResetResponse, error) {
	return b.session.Reset(ctx, channel)
}

func (b *remoteBackend) Close() error {
	b.session.Close()
	return nil
}
