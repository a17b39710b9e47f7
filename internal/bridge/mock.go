package bridge

import (
	"context"
	"sync"

	"github.com/roverlab/robogym/vision"
)

// MockClient implements Client for testing. Handshake responses are returned
// in the order they were queued, with the last one repeating; Step and Reset
// return canned snapshots unless a custom func is installed. All calls are
// counted so tests can assert the backend was (or was not) touched.
type MockClient struct {
	mu sync.Mutex

	HandshakeResponses []HandshakeResponse
	HandshakeErr       error
	handshakeIdx       int

	StepFunc func(req StepRequest) (StepResponse, error)
	StepErr  error

	ResetFunc func(req ResetRequest) (ResetResponse, error)
	ResetErr  error

	HandshakeCalls int
	StepCalls      int
	ResetCalls     int
	StepRequests   []StepRequest
}

// NewMockClient creates a mock bridge whose handshake immediately reports a
// running, registered experiment.
func NewMockClient() *MockClient {
	return &MockClient{
		HandshakeResponses: []HandshakeResponse{
			{Status: StatusRunning, Registered: true, Message: "experiment registered"},
		},
	}
}

// Handshake returns the next queued handshake response.
func (m *MockClient) Handshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandshakeCalls++
	if m.HandshakeErr != nil {
		return HandshakeResponse{}, m.HandshakeErr
	}
	if len(m.HandshakeResponses) == 0 {
		return HandshakeResponse{}, nil
	}
	resp := m.HandshakeResponses[m.handshakeIdx]
	if m.handshakeIdx < len(m.HandshakeResponses)-1 {
		m.handshakeIdx++
	}
	return resp, nil
}

// Step records the request and returns a canned snapshot.
func (m *MockClient) Step(ctx context.Context, req StepRequest) (StepResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StepCalls++
	m.StepRequests = append(m.StepRequests, req)
	if m.StepErr != nil {
		return StepResponse{}, m.StepErr
	}
	if m.StepFunc != nil {
		return m.StepFunc(req)
	}
	resp := StepResponse{Reward: 0, Done: false}
	fillFrames(req.Channel, &resp.Color, &resp.Depth)
	return resp, nil
}

// Reset records the call and returns a canned snapshot.
func (m *MockClient) Reset(ctx context.Context, req ResetRequest) (ResetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	if m.ResetErr != nil {
		return ResetResponse{}, m.ResetErr
	}
	if m.ResetFunc != nil {
		return m.ResetFunc(req)
	}
	resp := ResetResponse{}
	fillFrames(req.Channel, &resp.Color, &resp.Depth)
	return resp, nil
}

// fillFrames attaches synthetic frames matching the requested channel mode.
func fillFrames(channel string, color, depth **vision.Frame) {
	if channel == ChannelRGB || channel == ChannelRGBD {
		*color = SyntheticColorFrame(320, 240)
	}
	if channel == ChannelDepth || channel == ChannelRGBD {
		*depth = SyntheticDepthFrame(320, 240)
	}
}

// SyntheticColorFrame builds a deterministic colour gradient frame.
func SyntheticColorFrame(width, height int) *vision.Frame {
	f := &vision.Frame{
		Width:    width,
		Height:   height,
		Channels: 3,
		Data:     make([]float64, width*height*3),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			f.Data[i+0] = float64(x * 255 / width)
			f.Data[i+1] = float64(y * 255 / height)
			f.Data[i+2] = 128
		}
	}
	return f
}

// SyntheticDepthFrame builds a deterministic depth ramp frame.
func SyntheticDepthFrame(width, height int) *vision.Frame {
	f := &vision.Frame{
		Width:    width,
		Height:   height,
		Channels: 1,
		Data:     make([]float64, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Data[y*width+x] = float64(x+y) / float64(width+height) * 4.0
		}
	}
	return f
}
