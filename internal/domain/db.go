package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres) owns its own migration
// files and strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	Catalog() CatalogRepository
	Sessions() SessionRepository
	FileStore() FileStore
}
