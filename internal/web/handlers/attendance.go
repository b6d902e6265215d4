package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/veskrna/face-attend/internal/attendance"
	"github.com/veskrna/face-attend/internal/database"
)

// AttendanceHandler handles attendance ledger endpoints.
type AttendanceHandler struct {
	ledger *attendance.Ledger
	now    func() time.Time
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(ledger *attendance.Ledger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger, now: time.Now}
}

// AttendanceResponse represents an attendance record in API responses.
type AttendanceResponse struct {
	RecordID        string    `json:"record_id"`
	IdentityID      string    `json:"identity_id"`
	Date            string    `json:"date"`
	TimeIn          time.Time `json:"time_in"`
	Status          string    `json:"status"`
	ConfidenceScore float64   `json:"confidence_score"`
	DisplayName     string    `json:"display_name,omitempty"`
	ImageRef        string    `json:"image_ref,omitempty"`
}

func attendanceToResponse(r database.AttendanceRecord) AttendanceResponse {
	return AttendanceResponse{
		RecordID:        r.RecordID,
		IdentityID:      r.IdentityID,
		Date:            r.Date,
		TimeIn:          r.TimeIn,
		Status:          r.Status,
		ConfidenceScore: r.ConfidenceScore,
		DisplayName:     r.DisplayName,
		ImageRef:        r.ImageRef,
	}
}

// List returns the register for a date; defaults to today (UTC).
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = database.DateOf(h.now())
	}

	records, err := h.ledger.ListByDate(r.Context(), date)
	if errors.Is(err, attendance.ErrInvalidDate) {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list attendance")
		return
	}

	response := make([]AttendanceResponse, len(records))
	for i, rec := range records {
		response[i] = attendanceToResponse(rec)
	}
	respondJSON(w, http.StatusOK, response)
}

// MarkRequest represents the attendance marking request body.
type MarkRequest struct {
	IdentityID      string  `json:"identity_id"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Mark records presence for today. 201 on the first call of the day,
// 200 with the existing record on repeats.
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	outcome, err := h.ledger.MarkPresent(r.Context(), req.IdentityID, req.ConfidenceScore, h.now())
	switch {
	case errors.Is(err, attendance.ErrIdentityRequired),
		errors.Is(err, attendance.ErrInvalidConfidence):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to mark attendance")
		return
	}

	if !outcome.Created {
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "attendance already marked for today",
			"record":  attendanceToResponse(outcome.Record),
		})
		return
	}
	respondJSON(w, http.StatusCreated, attendanceToResponse(outcome.Record))
}

// UpdateRequest represents an administrative correction.
type UpdateRequest struct {
	Status string    `json:"status"`
	TimeIn time.Time `json:"time_in"`
}

// Update corrects status and time_in of an existing record.
func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordId")

	var req UpdateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.TimeIn.IsZero() {
		req.TimeIn = h.now()
	}

	record, err := h.ledger.Update(r.Context(), recordID, req.Status, req.TimeIn)
	switch {
	case errors.Is(err, attendance.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "attendance record not found")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to update attendance record")
		return
	}
	respondJSON(w, http.StatusOK, attendanceToResponse(*record))
}

// Delete removes an attendance record.
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordId")

	err := h.ledger.Delete(r.Context(), recordID)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "attendance record not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete attendance record")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true, "record_id": recordID})
}
