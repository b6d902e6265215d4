package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/veskrna/face-attend/internal/gallery"
	"github.com/veskrna/face-attend/internal/recognition"
)

// RecognizeHandler matches query embeddings against the gallery
// server-side, so thin kiosks do not need the gallery downloaded.
type RecognizeHandler struct {
	gallery *gallery.Service
	matcher recognition.Matcher
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(g *gallery.Service, matcher recognition.Matcher) *RecognizeHandler {
	return &RecognizeHandler{gallery: g, matcher: matcher}
}

// RecognizeRequest carries one embedding per detected face in a frame.
// Threshold optionally overrides the configured matching threshold for
// this request only.
type RecognizeRequest struct {
	Embeddings [][]float32 `json:"embeddings"`
	Threshold  *float64    `json:"threshold,omitempty"`
}

// RecognizeResponse holds one result per query embedding, in input
// order. A null result means no gallery entry was close enough.
type RecognizeResponse struct {
	Results []*recognition.Match `json:"results"`
}

// Recognize matches the supplied embeddings against a fresh gallery snapshot.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embeddings) == 0 {
		respondError(w, http.StatusBadRequest, "at least one embedding is required")
		return
	}

	matcher := h.matcher
	if req.Threshold != nil {
		if *req.Threshold <= 0 {
			respondError(w, http.StatusBadRequest, "threshold must be positive")
			return
		}
		matcher = recognition.Matcher{Threshold: *req.Threshold}
	}

	snapshot, err := h.gallery.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load gallery")
		return
	}

	results, err := matcher.MatchAll(req.Embeddings, snapshot)
	if errors.Is(err, recognition.ErrInvalidQuery) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "matching failed")
		return
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{Results: results})
}
