package database

import (
	"context"
	"time"
)

// IdentityReader provides read-only access to enrolled identities.
type IdentityReader interface {
	// Get retrieves an identity by ID, returns nil if not found.
	Get(ctx context.Context, identityID string) (*Identity, error)
	// List returns all enrolled identities. Ordering is stable within a
	// single snapshot (insertion order) but not otherwise guaranteed.
	List(ctx context.Context) ([]Identity, error)
	// Exists checks whether an identity is enrolled.
	Exists(ctx context.Context, identityID string) (bool, error)
	// Count returns the number of enrolled identities.
	Count(ctx context.Context) (int, error)
	// Dimension returns the embedding dimensionality established by the
	// first enrolled identity, or 0 for an empty gallery.
	Dimension(ctx context.Context) (int, error)
}

// IdentityWriter provides write access to enrolled identities.
type IdentityWriter interface {
	IdentityReader

	// Insert stores a new identity. Returns ErrDuplicateIdentity when the
	// ID is already enrolled.
	Insert(ctx context.Context, identity Identity) error
	// Delete removes an identity. Returns ErrNotFound when absent.
	Delete(ctx context.Context, identityID string) error
}

// AttendanceReader provides read-only access to attendance records.
type AttendanceReader interface {
	// GetByRecordID retrieves a record by ID, returns nil if not found.
	GetByRecordID(ctx context.Context, recordID string) (*AttendanceRecord, error)
	// FindByIdentityAndDate retrieves the record for an identity on a
	// calendar date, returns nil if none exists.
	FindByIdentityAndDate(ctx context.Context, identityID, date string) (*AttendanceRecord, error)
	// ListByDate returns all records for a date joined with identity
	// display info, ordered by time_in descending.
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
}

// AttendanceWriter provides write access to attendance records.
type AttendanceWriter interface {
	AttendanceReader

	// Insert stores a new record. Returns ErrDuplicateAttendance when a
	// record for (identity_id, date) already exists; the unique constraint
	// is the authoritative guard against concurrent marking.
	Insert(ctx context.Context, record AttendanceRecord) error
	// Update overwrites status and time_in of an existing record.
	// Returns ErrNotFound when absent.
	Update(ctx context.Context, recordID, status string, timeIn time.Time) (*AttendanceRecord, error)
	// Delete removes a record. Returns ErrNotFound when absent.
	Delete(ctx context.Context, recordID string) error
	// DeleteByIdentity removes all records for an identity and returns
	// the number deleted. Used by the gallery cascade contract.
	DeleteByIdentity(ctx context.Context, identityID string) (int, error)
}

// ImageStore provides blob storage for enrolled profile images.
type ImageStore interface {
	// Put stores image bytes under an opaque reference.
	Put(ctx context.Context, ref string, data []byte, contentType string) error
	// Get retrieves image bytes and content type. Returns ErrNotFound
	// when the reference is unknown.
	Get(ctx context.Context, ref string) ([]byte, string, error)
	// Delete removes a stored image. Deleting an unknown reference is
	// not an error (cleanup is best-effort).
	Delete(ctx context.Context, ref string) error
}
