package httputil

import (
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestMockHTTPClient_QueuedResponses(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(200, `first`).AddResponse(503, `second`)

	req, _ := http.NewRequest(http.MethodGet, "http://example/a", nil)
	resp, err := mock.Do(req)
	if err != nil {
		t.Fatalf("first do: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "first" {
		t.Errorf("first response: %d %q", resp.StatusCode, body)
	}

	resp, err = mock.Do(req)
	if err != nil {
		t.Fatalf("second do: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("second status = %d, want 503", resp.StatusCode)
	}

	// Past the queue the mock answers with an empty 200.
	resp, _ = mock.Do(req)
	if resp.StatusCode != 200 {
		t.Errorf("exhausted status = %d, want 200", resp.StatusCode)
	}
}

func TestMockHTTPClient_ErrorResponse(t *testing.T) {
	mock := NewMockHTTPClient()
	wantErr := errors.New("connection refused")
	mock.AddErrorResponse(wantErr)

	req, _ := http.NewRequest(http.MethodGet, "http://example/a", nil)
	if _, err := mock.Do(req); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestMockHTTPClient_RecordsRequests(t *testing.T) {
	mock := NewMockHTTPClient()

	reqA, _ := http.NewRequest(http.MethodGet, "http://example/a", nil)
	reqB, _ := http.NewRequest(http.MethodPost, "http://example/b", nil)
	mock.Do(reqA)
	mock.Do(reqB)

	if mock.RequestCount() != 2 {
		t.Fatalf("request count = %d, want 2", mock.RequestCount())
	}
	if got := mock.GetRequest(1); got.URL.Path != "/b" {
		t.Errorf("second request path = %s", got.URL.Path)
	}
	if mock.GetRequest(5) != nil {
		t.Error("out-of-range request is not nil")
	}
}

func TestMockHTTPClient_DoFunc(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("custom")
	}

	req, _ := http.NewRequest(http.MethodGet, "http://example/a", nil)
	if _, err := mock.Do(req); err == nil || err.Error() != "custom" {
		t.Errorf("err = %v, want custom", err)
	}
}
