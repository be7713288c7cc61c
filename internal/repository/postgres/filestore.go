package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/marquee/internal/domain"
)

// fileStore keeps blobs in a BYTEA column.
type fileStore struct {
	pool *pgxpool.Pool
}

func (s *fileStore) Save(ctx context.Context, key string, blob domain.Blob) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO file_blobs (storage_key, content_type, data) VALUES ($1, $2, $3)
		 ON CONFLICT (storage_key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		key, blob.ContentType, blob.Data,
	)
	if err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) (*domain.Blob, error) {
	var blob domain.Blob
	err := s.pool.QueryRow(ctx,
		"SELECT content_type, data FROM file_blobs WHERE storage_key = $1", key,
	).Scan(&blob.ContentType, &blob.Data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get file blob: %w", err)
	}
	return &blob, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM file_blobs WHERE storage_key = $1", key); err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
