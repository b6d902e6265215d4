package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/veskrna/face-attend/internal/embedder"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports service liveness and the embedder state, so a
// kiosk can distinguish "API down" from "models not loaded".
type HealthHandler struct {
	detector embedder.Detector
}

// NewHealthHandler creates a health handler. The detector may be nil.
func NewHealthHandler(detector embedder.Detector) *HealthHandler {
	return &HealthHandler{detector: detector}
}

// Check handles the health check endpoint.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	embedderState := "unconfigured"
	if h.detector != nil {
		embedderState = h.detector.State().String()
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"embedder": embedderState,
	})
}
