package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/veskrna/face-attend/internal/database"
)

// IdentityRepository implements database.IdentityWriter on PostgreSQL.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates an identity repository backed by pool.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Get(ctx context.Context, identityID string) (*database.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT identity_id, display_name, embedding, image_ref, created_at
		FROM identities
		WHERE identity_id = $1
	`, identityID)

	identity, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", identityID, err)
	}
	return identity, nil
}

func (r *IdentityRepository) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT identity_id, display_name, embedding, image_ref, created_at
		FROM identities
		ORDER BY created_at, identity_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []database.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, *identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

func (r *IdentityRepository) Exists(ctx context.Context, identityID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM identities WHERE identity_id = $1)",
		identityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity %s: %w", identityID, err)
	}
	return exists, nil
}

func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Dimension inspects an arbitrary stored embedding; the column itself
// is dimensionless so this is the only source of truth.
func (r *IdentityRepository) Dimension(ctx context.Context) (int, error) {
	var dim int
	err := r.pool.QueryRow(ctx, "SELECT vector_dims(embedding) FROM identities LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read embedding dimension: %w", err)
	}
	return dim, nil
}

func (r *IdentityRepository) Insert(ctx context.Context, identity database.Identity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identities (identity_id, display_name, embedding, image_ref, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, identity.IdentityID, identity.DisplayName,
		pgvector.NewVector(identity.Embedding), identity.ImageRef, identity.CreatedAt)
	if isUniqueViolation(err) {
		return database.ErrDuplicateIdentity
	}
	if err != nil {
		return fmt.Errorf("insert identity %s: %w", identity.IdentityID, err)
	}
	return nil
}

func (r *IdentityRepository) Delete(ctx context.Context, identityID string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM identities WHERE identity_id = $1", identityID)
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", identityID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", identityID, err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*database.Identity, error) {
	var identity database.Identity
	var embedding pgvector.Vector
	if err := row.Scan(
		&identity.IdentityID,
		&identity.DisplayName,
		&embedding,
		&identity.ImageRef,
		&identity.CreatedAt,
	); err != nil {
		return nil, err
	}
	identity.Embedding = embedding.Slice()
	return &identity, nil
}
