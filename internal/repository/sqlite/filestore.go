package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/marquee/internal/domain"
)

// fileStore implements domain.FileStore using SQLite BLOBs.
type fileStore struct {
	db *sql.DB
}

func (s *fileStore) Save(ctx context.Context, key string, blob domain.Blob) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_blobs (storage_key, content_type, data) VALUES (?, ?, ?)
		 ON CONFLICT (storage_key) DO UPDATE SET content_type = excluded.content_type, data = excluded.data`,
		key, blob.ContentType, blob.Data,
	)
	if err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) (*domain.Blob, error) {
	var blob domain.Blob
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM file_blobs WHERE storage_key = ?", key,
	).Scan(&blob.ContentType, &blob.Data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get file blob: %w", err)
	}
	return &blob, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM file_blobs WHERE storage_key = ?", key,
	)
	if err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}
