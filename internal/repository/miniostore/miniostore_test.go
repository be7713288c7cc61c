package miniostore_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/repository/miniostore"
)

func TestStore_SaveGetDelete(t *testing.T) {
	endpoint := os.Getenv("MARQUEE_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MARQUEE_TEST_MINIO_ENDPOINT not set")
	}
	ctx := context.Background()

	store, err := miniostore.New(ctx, miniostore.Options{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MARQUEE_TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MARQUEE_TEST_MINIO_SECRET_KEY"),
		Bucket:    "marquee-test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := "posters/" + uuid.NewString()
	if err := store.Save(ctx, key, domain.Blob{ContentType: "image/jpeg", Data: []byte("poster")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	blob, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if blob.ContentType != "image/jpeg" || string(blob.Data) != "poster" {
		t.Fatalf("unexpected blob: %+v", blob)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
