// Package embedder consumes the external face detection and embedding
// capability. The core never runs inference itself; it talks to a
// sidecar service that turns an image into face detections.
package embedder

import (
	"context"
	"errors"
)

// ErrModelsUnavailable indicates the embedding infrastructure is not
// ready (models missing or failed to load). Distinct from a successful
// detection that finds no faces.
var ErrModelsUnavailable = errors.New("face models unavailable")

// State tracks detector readiness. Replaces the old module-level
// "models loaded" boolean with an explicit lifecycle:
// Uninitialized -> Loading -> Ready | Failed.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Detection is one face found in an image: a bounding box in pixel
// coordinates plus the embedding vector for that face.
type Detection struct {
	BBox      [4]float64 `json:"bbox"`
	Embedding []float32  `json:"embedding"`
	Score     float64    `json:"score"`
}

// Detector is the FaceEmbedder capability consumed by the core.
// Detect may legitimately return zero detections; that is not an error.
type Detector interface {
	// Detect finds faces in the given image bytes. Returns
	// ErrModelsUnavailable when the detector is not Ready.
	Detect(ctx context.Context, image []byte) ([]Detection, error)
	// Ready reports whether the detector can serve Detect calls.
	Ready() bool
	// State returns the current lifecycle state.
	State() State
}
