// Package monitor serves a small web dashboard over the telemetry database:
// episode listings as JSON and reward charts for eyeballing training
// progress.
package monitor

import (
	"fmt"
	"net/http"

	"github.com/roverlab/robogym/internal/httputil"
	"github.com/roverlab/robogym/internal/telemetry"
)

// WebServer exposes telemetry read endpoints for one experiment.
type WebServer struct {
	store      *telemetry.Store
	experiment string
	mux        *http.ServeMux
}

// NewWebServer creates the dashboard for the given experiment.
func NewWebServer(store *telemetry.Store, experiment string) *WebServer {
	ws := &WebServer{store: store, experiment: experiment, mux: http.NewServeMux()}
	ws.mux.HandleFunc("/", ws.handleIndex)
	ws.mux.HandleFunc("/api/episodes", ws.handleEpisodes)
	ws.mux.HandleFunc("/api/stats", ws.handleStats)
	ws.mux.HandleFunc("/charts/returns", ws.handleReturnsChart)
	return ws
}

// Handler returns the dashboard's HTTP handler.
func (ws *WebServer) Handler() http.Handler {
	return ws.mux
}

// ListenAndServe runs the dashboard on addr. Blocks.
func (ws *WebServer) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, ws.mux)
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.WriteJSONError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body><h1>Experiment %s</h1>
<ul>
<li><a href="/api/episodes">episodes (JSON)</a></li>
<li><a href="/api/stats">stats (JSON)</a></li>
<li><a href="/charts/returns">returns chart</a></li>
</ul></body></html>`, ws.experiment)
}

func (ws *WebServer) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	episodes, err := ws.store.Episodes(ws.experiment)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if episodes == nil {
		episodes = []telemetry.EpisodeSummary{}
	}
	httputil.WriteJSONOK(w, episodes)
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	stats, err := ws.store.ExperimentStats(ws.experiment)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, stats)
}
