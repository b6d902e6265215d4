package database

import (
	"time"
)

// DateLayout is the calendar date format used for attendance idempotency.
// Dates carry no time-of-day; the calendar day is derived in UTC.
const DateLayout = "2006-01-02"

// Attendance record statuses. Status is mutable by administrative edit
// after creation; markPresent always creates records as StatusPresent.
const (
	StatusPresent = "present"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)

// ValidStatus reports whether s is an accepted attendance status.
func ValidStatus(s string) bool {
	return s == StatusPresent || s == StatusLate || s == StatusAbsent
}

// Identity is an enrolled gallery entry. IdentityID is the primary key
// and immutable once created. The embedding dimensionality is uniform
// across the gallery; the first enrolled entry establishes it.
type Identity struct {
	IdentityID  string
	DisplayName string
	Embedding   []float32
	ImageRef    string
	CreatedAt   time.Time
}

// AttendanceRecord is a once-per-day presence record. At most one record
// exists per (IdentityID, Date) pair; the storage layer enforces this
// with a unique constraint.
type AttendanceRecord struct {
	RecordID        string
	IdentityID      string
	Date            string // DateLayout, no time-of-day
	TimeIn          time.Time
	Status          string
	ConfidenceScore float64
	CreatedAt       time.Time

	// Joined identity display info, populated by ListByDate. Empty when
	// the owning identity no longer exists (weak reference).
	DisplayName string
	ImageRef    string
}

// DateOf derives the calendar date for a point in time. Attendance days
// roll over at midnight UTC, matching how records were keyed historically.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
