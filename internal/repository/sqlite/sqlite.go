package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and hands out the repositories built on it.
type DB struct {
	SqlDB *sql.DB
	path  string
}

var _ domain.Database = (*DB)(nil)

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps PRAGMAs applied and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db, path: dbPath}, nil
}

// Migrate applies pending migrations. The server and marqueectl may start
// against the same file, so file-backed databases take an exclusive lock
// next to the database while migrating.
func (d *DB) Migrate(ctx context.Context) error {
	if d.path != "" && d.path != ":memory:" {
		lock := flock.New(d.path + ".migrate.lock")
		if err := lock.Lock(); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		defer lock.Unlock()
	}
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

func (d *DB) Posts() domain.PostRepository {
	return &postRepo{db: d.SqlDB}
}

func (d *DB) Comments() domain.CommentRepository {
	return &commentRepo{db: d.SqlDB}
}

func (d *DB) Catalog() domain.CatalogRepository {
	return &catalogRepo{db: d.SqlDB}
}

func (d *DB) Sessions() domain.SessionRepository {
	return &sessionRepo{db: d.SqlDB}
}

func (d *DB) FileStore() domain.FileStore {
	return &fileStore{db: d.SqlDB}
}
