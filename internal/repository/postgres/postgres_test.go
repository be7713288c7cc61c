package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/repository/postgres"
)

// newTestDB connects to the database named by MARQUEE_TEST_POSTGRES_DSN,
// resets the public schema and migrates it. The tests are skipped when
// the variable is unset.
func newTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	dsn := os.Getenv("MARQUEE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MARQUEE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Pool.Exec(ctx, "DROP SCHEMA public CASCADE; CREATE SCHEMA public"); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var count int
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6 migration records, got %d", count)
	}
}

func TestUsersAndRoles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{Email: "a@example.com", Name: "A", PasswordHash: "h"}
	if err := db.Users().Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != domain.RoleReader {
		t.Fatalf("expected reader role, got %q", u.Role)
	}
	dup := &domain.User{Email: "a@example.com", Name: "B", PasswordHash: "h"}
	if err := db.Users().Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := db.Users().SetRole(ctx, "a@example.com", domain.RoleAdmin); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	got, err := db.Users().GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !got.IsAdmin() {
		t.Fatal("expected admin after SetRole")
	}
	if err := db.Users().SetRole(ctx, "nobody@example.com", domain.RoleAdmin); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostsAndComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	author := &domain.User{Email: "admin@example.com", Name: "Admin", PasswordHash: "h", Role: domain.RoleAdmin}
	if err := db.Users().Create(ctx, author); err != nil {
		t.Fatalf("create user: %v", err)
	}

	post := &domain.Post{
		AuthorID: author.ID, Title: "Hello", Subtitle: "World", Body: "<p>x</p>",
		ImageURL: "https://example.com/i.png", Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Posts().Create(ctx, post); err != nil {
		t.Fatalf("Create: %v", err)
	}
	again := *post
	if err := db.Posts().Create(ctx, &again); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}

	if err := db.Comments().Create(ctx, &domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: "nice"}); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	comments, err := db.Comments().ListByPost(ctx, post.ID)
	if err != nil || len(comments) != 1 {
		t.Fatalf("ListByPost: %v (%d comments)", err, len(comments))
	}

	got, err := db.Posts().GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Date.Format("2006-01-02") != "2026-01-02" || got.AuthorName != "Admin" {
		t.Fatalf("unexpected post: %+v", got)
	}

	if err := db.Posts().Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	comments, err = db.Comments().ListByPost(ctx, post.ID)
	if err != nil || len(comments) != 0 {
		t.Fatalf("expected comments removed: %v (%d)", err, len(comments))
	}
}

func TestCatalogRanking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := &domain.CatalogEntry{Title: "A", Year: 2001, Description: "d", ImageURL: "u"}
	b := &domain.CatalogEntry{Title: "B", Year: 2002, Description: "d", ImageURL: "u"}
	for _, e := range []*domain.CatalogEntry{a, b} {
		if err := db.Catalog().Create(ctx, e); err != nil {
			t.Fatalf("Create %s: %v", e.Title, err)
		}
	}
	if err := db.Catalog().Create(ctx, &domain.CatalogEntry{Title: "A", Description: "d", ImageURL: "u"}); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	if err := db.Catalog().SetRating(ctx, a.ID, domain.Rating{Rating: 9, Rank: 1, Review: "great"}); err != nil {
		t.Fatalf("SetRating: %v", err)
	}

	entries, err := db.Catalog().ListByRank(ctx)
	if err != nil {
		t.Fatalf("ListByRank: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "B" || entries[1].Title != "A" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[1].RankValue() != 1 || entries[1].ReviewText() != "great" {
		t.Fatalf("rating not stored: %+v", entries[1])
	}
	if entries[0].Finalized() {
		t.Fatal("expected B to stay provisional")
	}
}

func TestSessionsAndFiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &domain.User{Email: "s@example.com", Name: "S", PasswordHash: "h"}
	if err := db.Users().Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	now := time.Now().UTC()
	if err := db.Sessions().Create(ctx, &domain.Session{ID: "x", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	n, err := db.Sessions().DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired: %v (%d)", err, n)
	}

	if err := db.FileStore().Save(ctx, "k", domain.Blob{ContentType: "image/jpeg", Data: []byte("jpg")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	blob, err := db.FileStore().Get(ctx, "k")
	if err != nil || string(blob.Data) != "jpg" {
		t.Fatalf("Get: %v", err)
	}
	if err := db.FileStore().Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.FileStore().Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
