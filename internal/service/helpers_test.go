package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sqlite.DB, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "User " + email, PasswordHash: "x", Role: role}
	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
