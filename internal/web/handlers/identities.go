package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/enrollment"
	"github.com/veskrna/face-attend/internal/gallery"
)

// IdentitiesHandler handles gallery endpoints.
type IdentitiesHandler struct {
	gallery    *gallery.Service
	enrollment *enrollment.Service
	images     database.ImageStore
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(g *gallery.Service, e *enrollment.Service, images database.ImageStore) *IdentitiesHandler {
	return &IdentitiesHandler{gallery: g, enrollment: e, images: images}
}

// IdentityResponse represents an enrolled identity in API responses.
// Embeddings are included: the kiosk scanner loads the full gallery and
// matches locally when the server-side endpoint is unreachable.
type IdentityResponse struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Embedding   []float32 `json:"embedding"`
	ImageRef    string    `json:"image_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

func identityToResponse(i database.Identity) IdentityResponse {
	return IdentityResponse{
		IdentityID:  i.IdentityID,
		DisplayName: i.DisplayName,
		Embedding:   i.Embedding,
		ImageRef:    i.ImageRef,
		CreatedAt:   i.CreatedAt,
	}
}

// List returns all enrolled identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		entries []database.Identity
		err     error
	)
	if q := r.URL.Query().Get("name"); q != "" {
		entries, err = h.gallery.Search(r.Context(), q)
	} else {
		entries, err = h.gallery.List(r.Context())
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	response := make([]IdentityResponse, len(entries))
	for i, e := range entries {
		response[i] = identityToResponse(e)
	}
	respondJSON(w, http.StatusOK, response)
}

// EnrollRequest represents the enrollment request body. The embedding is
// computed client-side during capture.
type EnrollRequest struct {
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Embedding   []float32 `json:"embedding"`
	ImageRef    string    `json:"image_ref"`
}

// Enroll adds a new identity to the gallery.
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	identity, err := h.enrollment.EnrollPrecomputed(r.Context(), enrollment.PrecomputedRequest{
		IdentityID:  req.IdentityID,
		DisplayName: req.DisplayName,
		Embedding:   req.Embedding,
		ImageRef:    req.ImageRef,
	})
	switch {
	case errors.Is(err, database.ErrDuplicateIdentity):
		respondError(w, http.StatusConflict, "identity already enrolled")
		return
	case errors.Is(err, gallery.ErrInvalidEmbedding),
		errors.Is(err, gallery.ErrMissingFields):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to enroll identity")
		return
	}

	respondJSON(w, http.StatusCreated, identityToResponse(*identity))
}

// Get returns a single identity.
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := h.gallery.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}
	respondJSON(w, http.StatusOK, identityToResponse(*identity))
}

// Exists reports whether an identity is enrolled.
func (h *IdentitiesHandler) Exists(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	exists, err := h.gallery.Exists(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check identity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// Delete removes an identity; attendance records and the stored profile
// image are cleaned up through the gallery removal hooks.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.gallery.Remove(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete identity")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true, "identity_id": id})
}

// Image serves the stored profile image.
func (h *IdentitiesHandler) Image(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := h.gallery.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}
	if identity.ImageRef == "" {
		respondError(w, http.StatusNotFound, "identity has no stored image")
		return
	}

	data, contentType, err := h.images.Get(r.Context(), identity.ImageRef)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
