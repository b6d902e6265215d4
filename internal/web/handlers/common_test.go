package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veskrna/face-attend/internal/embedder"
)

type staticDetector struct {
	state embedder.State
}

func (d *staticDetector) Detect(ctx context.Context, image []byte) ([]embedder.Detection, error) {
	return nil, nil
}
func (d *staticDetector) Ready() bool           { return d.state == embedder.StateReady }
func (d *staticDetector) State() embedder.State { return d.state }

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(&staticDetector{state: embedder.StateReady})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	var got map[string]string
	parseJSONResponse(t, rec, &got)
	if got["status"] != "ok" {
		t.Errorf("expected status ok, got %s", got["status"])
	}
	if got["embedder"] != "ready" {
		t.Errorf("expected embedder ready, got %s", got["embedder"])
	}
}

func TestHealthCheck_FailedEmbedderStillHealthy(t *testing.T) {
	// The API itself is up even when the embedder sidecar lost its
	// models; the state is reported, not turned into an error.
	h := NewHealthHandler(&staticDetector{state: embedder.StateFailed})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	var got map[string]string
	parseJSONResponse(t, rec, &got)
	if got["embedder"] != "failed" {
		t.Errorf("expected embedder failed, got %s", got["embedder"])
	}
}

func TestHealthCheck_NoDetectorConfigured(t *testing.T) {
	h := NewHealthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)
	assertStatusCode(t, rec, http.StatusOK)

	var got map[string]string
	parseJSONResponse(t, rec, &got)
	if got["embedder"] != "unconfigured" {
		t.Errorf("expected embedder unconfigured, got %s", got["embedder"])
	}
}
