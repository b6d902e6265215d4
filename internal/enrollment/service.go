// Package enrollment orchestrates new gallery entries: validation,
// duplicate rejection, face detection, image storage, and the final
// gallery insert.
package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/embedder"
	"github.com/veskrna/face-attend/internal/gallery"
)

// ErrNoFaceDetected indicates the embedder found no face in the
// enrollment image. Distinct from ErrModelsUnavailable: the
// infrastructure worked, the picture just had no usable face.
var ErrNoFaceDetected = errors.New("no face detected in enrollment image")

// ImageRequest enrolls an identity from a raw image; the embedding is
// computed by the FaceEmbedder capability.
type ImageRequest struct {
	IdentityID  string
	DisplayName string
	Image       []byte
	ContentType string
}

// PrecomputedRequest enrolls an identity whose embedding was computed
// by the caller (the HTTP enrollment shape).
type PrecomputedRequest struct {
	IdentityID  string
	DisplayName string
	Embedding   []float32
	ImageRef    string
}

// Service wires the gallery, image store, and face detector together.
type Service struct {
	gallery  *gallery.Service
	images   database.ImageStore
	detector embedder.Detector
}

// New creates an enrollment service. The detector may be nil when only
// precomputed enrollment is needed.
func New(g *gallery.Service, images database.ImageStore, detector embedder.Detector) *Service {
	return &Service{gallery: g, images: images, detector: detector}
}

// EnrollImage runs the full enrollment pipeline: validate, fast
// duplicate check, detect, store image, add to gallery.
//
// Steps are not rolled back on later failure: if the gallery insert
// fails after the image was stored, the image is orphaned. Known gap,
// covered by tests so the behavior is at least deliberate.
func (s *Service) EnrollImage(ctx context.Context, req ImageRequest) (*database.Identity, error) {
	if req.IdentityID == "" || req.DisplayName == "" {
		return nil, gallery.ErrMissingFields
	}
	if len(req.Image) == 0 {
		return nil, errors.New("enrollment image is required")
	}

	// Reject duplicates before any expensive embedding work.
	exists, err := s.gallery.Exists(ctx, req.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("check existing identity: %w", err)
	}
	if exists {
		return nil, database.ErrDuplicateIdentity
	}

	if s.detector == nil {
		return nil, embedder.ErrModelsUnavailable
	}
	detections, err := s.detector.Detect(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, ErrNoFaceDetected
	}

	// Several faces in an enrollment photo: take the strongest detection.
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Score > best.Score {
			best = d
		}
	}

	imageRef := "profiles/" + req.IdentityID
	if err := s.images.Put(ctx, imageRef, req.Image, req.ContentType); err != nil {
		return nil, fmt.Errorf("store enrollment image: %w", err)
	}

	return s.gallery.Add(ctx, req.IdentityID, req.DisplayName, best.Embedding, imageRef)
}

// EnrollPrecomputed enrolls an identity with a caller-supplied
// embedding and image reference. Validation and duplicate handling are
// delegated to the gallery.
func (s *Service) EnrollPrecomputed(ctx context.Context, req PrecomputedRequest) (*database.Identity, error) {
	if req.IdentityID == "" || req.DisplayName == "" {
		return nil, gallery.ErrMissingFields
	}
	return s.gallery.Add(ctx, req.IdentityID, req.DisplayName, req.Embedding, req.ImageRef)
}
