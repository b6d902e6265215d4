package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veskrna/face-attend/internal/database"
)

// AttendanceRepository implements database.AttendanceWriter on PostgreSQL.
// The UNIQUE (identity_id, date) constraint is the authoritative guard
// against double-marking; 23505 is surfaced as ErrDuplicateAttendance.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates an attendance repository backed by pool.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

func (r *AttendanceRepository) GetByRecordID(ctx context.Context, recordID string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT record_id, identity_id, date, time_in, status, confidence_score, created_at
		FROM attendance
		WHERE record_id = $1
	`, recordID)

	record, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance record %s: %w", recordID, err)
	}
	return record, nil
}

func (r *AttendanceRepository) FindByIdentityAndDate(ctx context.Context, identityID, date string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT record_id, identity_id, date, time_in, status, confidence_score, created_at
		FROM attendance
		WHERE identity_id = $1 AND date = $2
	`, identityID, date)

	record, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance for %s on %s: %w", identityID, date, err)
	}
	return record, nil
}

// ListByDate joins identity display info. The join is LEFT so records
// whose identity was deleted out-of-band still show up (weak reference).
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.record_id, a.identity_id, a.date, a.time_in, a.status,
		       a.confidence_score, a.created_at,
		       COALESCE(i.display_name, ''), COALESCE(i.image_ref, '')
		FROM attendance a
		LEFT JOIN identities i ON i.identity_id = a.identity_id
		WHERE a.date = $1
		ORDER BY a.time_in DESC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", date, err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		var day time.Time
		if err := rows.Scan(
			&rec.RecordID, &rec.IdentityID, &day, &rec.TimeIn, &rec.Status,
			&rec.ConfidenceScore, &rec.CreatedAt,
			&rec.DisplayName, &rec.ImageRef,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		rec.Date = day.Format(database.DateLayout)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

func (r *AttendanceRepository) Insert(ctx context.Context, record database.AttendanceRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (record_id, identity_id, date, time_in, status, confidence_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, record.RecordID, record.IdentityID, record.Date, record.TimeIn,
		record.Status, record.ConfidenceScore, record.CreatedAt)
	if isUniqueViolation(err) {
		return database.ErrDuplicateAttendance
	}
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Update(ctx context.Context, recordID, status string, timeIn time.Time) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE attendance
		SET status = $2, time_in = $3
		WHERE record_id = $1
		RETURNING record_id, identity_id, date, time_in, status, confidence_score, created_at
	`, recordID, status, timeIn)

	record, err := scanAttendance(row)
	if err != nil {
		return nil, mapNotFound(fmt.Errorf("update attendance record %s: %w", recordID, err))
	}
	return record, nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, recordID string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE record_id = $1", recordID)
	if err != nil {
		return fmt.Errorf("delete attendance record %s: %w", recordID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attendance record %s: %w", recordID, err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *AttendanceRepository) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM attendance WHERE identity_id = $1", identityID)
	if err != nil {
		return 0, fmt.Errorf("delete attendance for identity %s: %w", identityID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete attendance for identity %s: %w", identityID, err)
	}
	return int(affected), nil
}

func scanAttendance(row rowScanner) (*database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var day time.Time
	if err := row.Scan(
		&rec.RecordID, &rec.IdentityID, &day, &rec.TimeIn,
		&rec.Status, &rec.ConfidenceScore, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Date = day.Format(database.DateLayout)
	return &rec, nil
}
