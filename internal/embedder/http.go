package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/veskrna/face-attend/internal/config"
)

// HTTPDetector talks to the face embedding sidecar over HTTP.
// The sidecar exposes GET /healthz (model readiness plus embedding
// dimensionality) and POST /detect (image in, detections out).
type HTTPDetector struct {
	baseURL string
	wantDim int
	client  *http.Client

	state atomic.Int32
	dim   atomic.Int32
}

// NewHTTPDetector creates a detector client. Call Init before Detect.
func NewHTTPDetector(cfg *config.EmbedderConfig) *HTTPDetector {
	return &HTTPDetector{
		baseURL: cfg.URL,
		wantDim: cfg.Dim,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type healthResponse struct {
	ModelsLoaded bool `json:"models_loaded"`
	Dim          int  `json:"dim"`
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Init probes the sidecar and transitions the detector to Ready or
// Failed. Safe to call again after a failure to retry.
func (d *HTTPDetector) Init(ctx context.Context) error {
	d.state.Store(int32(StateLoading))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/healthz", nil)
	if err != nil {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("could not create health request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("embedder health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("embedder health check returned status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("could not decode health response: %w", err)
	}

	if !health.ModelsLoaded {
		d.state.Store(int32(StateFailed))
		return ErrModelsUnavailable
	}
	if d.wantDim > 0 && health.Dim != d.wantDim {
		d.state.Store(int32(StateFailed))
		return fmt.Errorf("embedder reports dimension %d, expected %d", health.Dim, d.wantDim)
	}

	d.dim.Store(int32(health.Dim))
	d.state.Store(int32(StateReady))
	return nil
}

// State returns the current lifecycle state.
func (d *HTTPDetector) State() State {
	return State(d.state.Load())
}

// Ready reports whether Detect calls can be served.
func (d *HTTPDetector) Ready() bool {
	return d.State() == StateReady
}

// Dimension returns the embedding dimensionality reported by the
// sidecar, or 0 before a successful Init.
func (d *HTTPDetector) Dimension() int {
	return int(d.dim.Load())
}

// Detect sends the image to the sidecar and returns the faces found.
// Zero detections is a valid result. A sidecar 503 means the models
// became unavailable after Init and maps to ErrModelsUnavailable.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	if !d.Ready() {
		return nil, ErrModelsUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("could not create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		d.state.Store(int32(StateFailed))
		return nil, ErrModelsUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detect request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode detect response: %w", err)
	}
	return result.Detections, nil
}

// readErrorBody extracts an error message from a failed response body.
func readErrorBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}
	var e errorResponse
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(data)
}
