package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veskrna/face-attend/internal/database"
)

// ImageRepository stores profile images as bytea blobs. Small images at
// enrollment volume do not justify an object store.
type ImageRepository struct {
	pool *Pool
}

// NewImageRepository creates an image blob store backed by pool.
func NewImageRepository(pool *Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Put(ctx context.Context, ref string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO images (ref, data, content_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (ref) DO UPDATE SET data = EXCLUDED.data, content_type = EXCLUDED.content_type
	`, ref, data, contentType)
	if err != nil {
		return fmt.Errorf("store image %s: %w", ref, err)
	}
	return nil
}

func (r *ImageRepository) Get(ctx context.Context, ref string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := r.pool.QueryRow(ctx,
		"SELECT data, content_type FROM images WHERE ref = $1", ref,
	).Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", database.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get image %s: %w", ref, err)
	}
	return data, contentType, nil
}

func (r *ImageRepository) Delete(ctx context.Context, ref string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM images WHERE ref = $1", ref); err != nil {
		return fmt.Errorf("delete image %s: %w", ref, err)
	}
	return nil
}
