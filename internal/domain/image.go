package domain

import "context"

// Blob is a stored file with its MIME type.
type Blob struct {
	ContentType string
	Data        []byte
}

// FileStore abstracts raw file byte storage.
// The database implementations keep BLOBs next to the rest of the data;
// the MinIO implementation keeps them in an object bucket.
type FileStore interface {
	Save(ctx context.Context, key string, blob Blob) error
	Get(ctx context.Context, key string) (*Blob, error)
	Delete(ctx context.Context, key string) error
}
