// Command gym-replay is a development stub for the robot bridge. It serves
// the bridge protocol with synthetic sensor frames so the full agent loop can
// run without hardware or a physics simulator. It is not the production
// server: registration state lives in memory and rewards are noise.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"sync"

	"github.com/roverlab/robogym/internal/bridge"
	"github.com/roverlab/robogym/internal/httputil"
	"github.com/roverlab/robogym/vision"
)

var (
	listen    = flag.String("listen", ":7909", "Listen address")
	goalAfter = flag.Int("goal-after", 40, "Minimum steps before the synthetic goal can trigger")
)

// stubServer holds the in-memory registration and episode state.
type stubServer struct {
	mu          sync.Mutex
	experiments map[string]bool
	steps       int
	rng         *rand.Rand
}

func main() {
	flag.Parse()

	s := &stubServer{
		experiments: make(map[string]bool),
		rng:         rand.New(rand.NewSource(1)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/handshake", s.handleHandshake)
	mux.HandleFunc("/v1/step", s.handleStep)
	mux.HandleFunc("/v1/reset", s.handleReset)
	mux.HandleFunc("/v1/physics/pause", handleOK)
	mux.HandleFunc("/v1/physics/resume", handleOK)
	mux.HandleFunc("/v1/pose", handleOK)

	log.Printf("stub bridge listening on %s", *listen)
	log.Fatal(http.ListenAndServe(*listen, mux))
}

func (s *stubServer) handleHandshake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req bridge.HandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "malformed handshake")
		return
	}
	if req.ExperimentID == "" {
		httputil.BadRequest(w, "missing experiment_id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := bridge.HandshakeResponse{Status: bridge.StatusRunning}
	known := s.experiments[req.ExperimentID]
	switch {
	case req.Resume && !known:
		resp.Message = "cannot resume: experiment " + req.ExperimentID + " is not registered"
	case !req.Resume && known:
		resp.Message = "experiment " + req.ExperimentID + " already exists"
	default:
		s.experiments[req.ExperimentID] = true
		resp.Registered = true
		resp.Message = "experiment " + req.ExperimentID + " registered"
	}
	log.Printf("handshake %q resume=%v registered=%v", req.ExperimentID, req.Resume, resp.Registered)
	httputil.WriteJSONOK(w, resp)
}

func (s *stubServer) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req bridge.StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "malformed step")
		return
	}
	if req.Action < 0 || req.Action > 3 {
		httputil.BadRequest(w, "action out of range")
		return
	}

	s.mu.Lock()
	s.steps++
	done := s.steps >= *goalAfter && s.rng.Float64() < 0.05
	reward := s.rng.Float64() - 0.45
	if done {
		reward = 1.0
		s.steps = 0
	}
	s.mu.Unlock()

	resp := bridge.StepResponse{Reward: reward, Done: done}
	attachFrames(req.Channel, &resp.Color, &resp.Depth)
	httputil.WriteJSONOK(w, resp)
}

func (s *stubServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req bridge.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "malformed reset")
		return
	}

	s.mu.Lock()
	s.steps = 0
	s.mu.Unlock()

	resp := bridge.ResetResponse{}
	attachFrames(req.Channel, &resp.Color, &resp.Depth)
	httputil.WriteJSONOK(w, resp)
}

// attachFrames fills in synthetic frames for the requested channel mode.
func attachFrames(channel string, color, depth **vision.Frame) {
	if channel == bridge.ChannelRGB || channel == bridge.ChannelRGBD {
		*color = bridge.SyntheticColorFrame(320, 240)
	}
	if channel == bridge.ChannelDepth || channel == bridge.ChannelRGBD {
		*depth = bridge.SyntheticDepthFrame(320, 240)
	}
}

func handleOK(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
