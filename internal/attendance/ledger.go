// Package attendance implements the once-per-day presence ledger.
// Idempotency is keyed on (identity_id, calendar date); the storage
// unique constraint, not the check-then-insert read, is the
// authoritative guard under concurrent marking.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/veskrna/face-attend/internal/database"
)

// ErrInvalidConfidence is returned when a confidence score falls
// outside [0, 1].
var ErrInvalidConfidence = errors.New("confidence score must be between 0 and 1")

// ErrInvalidStatus is returned for an unknown attendance status.
var ErrInvalidStatus = errors.New("invalid attendance status")

// ErrInvalidDate is returned for a date that does not parse as
// YYYY-MM-DD. A validation sentinel, distinct from storage failures on
// a well-formed date.
var ErrInvalidDate = errors.New("invalid date")

// ErrIdentityRequired is returned when MarkPresent is called without
// an identity ID.
var ErrIdentityRequired = errors.New("identity_id is required")

// Outcome reports the result of MarkPresent. Created is false when the
// identity was already marked for the day; Record then refers to the
// pre-existing record, untouched by the repeat call.
type Outcome struct {
	Created bool
	Record  database.AttendanceRecord
}

// Ledger writes attendance records through an attendance store.
// It never touches the gallery.
type Ledger struct {
	store database.AttendanceWriter
}

// NewLedger creates a ledger backed by the given store.
func NewLedger(store database.AttendanceWriter) *Ledger {
	return &Ledger{store: store}
}

// MarkPresent records the first accepted recognition of an identity on
// the calendar day of at. Repeat calls for the same day return the
// existing record without mutating it. A uniqueness violation on insert
// means a concurrent caller won the race; that is recovered locally and
// reported as AlreadyMarked, never surfaced as an error.
func (l *Ledger) MarkPresent(ctx context.Context, identityID string, confidence float64, at time.Time) (*Outcome, error) {
	if identityID == "" {
		return nil, ErrIdentityRequired
	}
	if confidence < 0 || confidence > 1 {
		return nil, ErrInvalidConfidence
	}

	date := database.DateOf(at)

	existing, err := l.store.FindByIdentityAndDate(ctx, identityID, date)
	if err != nil {
		return nil, fmt.Errorf("check existing attendance: %w", err)
	}
	if existing != nil {
		return &Outcome{Created: false, Record: *existing}, nil
	}

	record := database.AttendanceRecord{
		RecordID:        uuid.NewString(),
		IdentityID:      identityID,
		Date:            date,
		TimeIn:          at,
		Status:          database.StatusPresent,
		ConfidenceScore: confidence,
		CreatedAt:       time.Now().UTC(),
	}

	err = l.store.Insert(ctx, record)
	if errors.Is(err, database.ErrDuplicateAttendance) {
		// A concurrent caller created the record between the check and
		// the insert. The constraint is the source of truth; fetch the
		// winner and report AlreadyMarked.
		winner, ferr := l.store.FindByIdentityAndDate(ctx, identityID, date)
		if ferr != nil {
			return nil, fmt.Errorf("fetch winning attendance record: %w", ferr)
		}
		if winner == nil {
			return nil, fmt.Errorf("attendance record for %s on %s vanished after conflict", identityID, date)
		}
		return &Outcome{Created: false, Record: *winner}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}

	return &Outcome{Created: true, Record: record}, nil
}

// Update applies an administrative correction to status and time_in.
// Direct overwrite, no idempotency constraint. Returns
// database.ErrNotFound when the record is absent.
func (l *Ledger) Update(ctx context.Context, recordID, status string, timeIn time.Time) (*database.AttendanceRecord, error) {
	if !database.ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return l.store.Update(ctx, recordID, status, timeIn)
}

// Delete removes a record. Returns database.ErrNotFound when absent.
func (l *Ledger) Delete(ctx context.Context, recordID string) error {
	return l.store.Delete(ctx, recordID)
}

// CascadeDeleteForIdentity removes every record for an identity.
// Invoked through the gallery removal contract.
func (l *Ledger) CascadeDeleteForIdentity(ctx context.Context, identityID string) (int, error) {
	return l.store.DeleteByIdentity(ctx, identityID)
}

// ListByDate returns the register for a calendar date joined with
// identity display info, ordered by time_in descending.
func (l *Ledger) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if _, err := time.Parse(database.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return l.store.ListByDate(ctx, date)
}
