package database

import "errors"

// Sentinel errors returned by storage implementations. Constraint
// violations map to the duplicate sentinels so callers can recover them
// locally instead of surfacing storage failures.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentity   = errors.New("identity already exists")
	ErrDuplicateAttendance = errors.New("attendance already marked for this date")
)
