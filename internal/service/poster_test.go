package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/service"
)

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) DownloadImage(_ context.Context, imageURL string) (*domain.Blob, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Blob{ContentType: "image/jpeg", Data: []byte(imageURL)}, nil
}

func TestPosterService_MirrorsOnFirstUse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	catalog := service.NewCatalogService(db.Catalog(), newFakeProvider(), time.Second)
	fetcher := &fakeFetcher{}
	posters := service.NewPosterService(db.Catalog(), db.FileStore(), fetcher, time.Second)

	entry, err := catalog.Materialize(ctx, 603)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	for i := 0; i < 2; i++ {
		blob, err := posters.Get(ctx, entry.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if string(blob.Data) != entry.ImageURL {
			t.Fatalf("unexpected poster data %q", blob.Data)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected a single download, got %d", fetcher.calls)
	}

	if err := posters.Forget(ctx, entry.ID); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, err := db.FileStore().Get(ctx, "posters/1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected stored poster to be gone, got %v", err)
	}
}

func TestPosterService_Errors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	catalog := service.NewCatalogService(db.Catalog(), newFakeProvider(), time.Second)
	fetcher := &fakeFetcher{err: errors.New("cdn down")}
	posters := service.NewPosterService(db.Catalog(), db.FileStore(), fetcher, time.Second)

	if _, err := posters.Get(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing entry, got %v", err)
	}

	noPoster, err := catalog.Materialize(ctx, 999)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if _, err := posters.Get(ctx, noPoster.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for entry without poster, got %v", err)
	}

	withPoster, err := catalog.Materialize(ctx, 603)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if _, err := posters.Get(ctx, withPoster.ID); !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
