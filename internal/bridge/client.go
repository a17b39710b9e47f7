package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/roverlab/robogym/internal/httputil"
)

// HTTPBridge speaks the bridge protocol over HTTP/JSON. The transport
// specifics (addressing, TLS, auth headers) live in the http.Client handed in
// by the caller; this type only knows the request/response pairs.
type HTTPBridge struct {
	HTTPClient httputil.HTTPClient
	BaseURL    string
}

// NewHTTPBridge creates a bridge client for the server at baseURL.
func NewHTTPBridge(client httputil.HTTPClient, baseURL string) *HTTPBridge {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPBridge{HTTPClient: client, BaseURL: baseURL}
}

// Handshake registers or resumes an experiment.
func (b *HTTPBridge) Handshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error) {
	var resp HandshakeResponse
	err := b.post(ctx, "/v1/handshake", req, &resp)
	return resp, err
}

// Step executes one motion command and returns the resulting snapshot.
func (b *HTTPBridge) Step(ctx context.Context, req StepRequest) (StepResponse, error) {
	var resp StepResponse
	err := b.post(ctx, "/v1/step", req, &resp)
	return resp, err
}

// Reset re-poses the robot and returns the post-reset observation.
func (b *HTTPBridge) Reset(ctx context.Context, req ResetRequest) (ResetResponse, error) {
	var resp ResetResponse
	err := b.post(ctx, "/v1/reset", req, &resp)
	return resp, err
}

// post sends one JSON request/response exchange. A non-200 status is an
// error carrying the server's message; there is no retry at this layer.
func (b *HTTPBridge) post(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, e.Error)
		}
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
