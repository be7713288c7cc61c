package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msomdec/marquee/internal/domain"
)

// ImageFetcher downloads remote images.
type ImageFetcher interface {
	DownloadImage(ctx context.Context, imageURL string) (*domain.Blob, error)
}

// PosterService mirrors catalog posters into a FileStore so that pages do
// not depend on the provider's CDN after the first view.
type PosterService struct {
	catalog domain.CatalogRepository
	files   domain.FileStore
	fetcher ImageFetcher
	timeout time.Duration
}

func NewPosterService(catalog domain.CatalogRepository, files domain.FileStore, fetcher ImageFetcher, timeout time.Duration) *PosterService {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &PosterService{catalog: catalog, files: files, fetcher: fetcher, timeout: timeout}
}

func posterKey(entryID int64) string {
	return fmt.Sprintf("posters/%d", entryID)
}

// Get returns the poster of a catalog entry, downloading and storing it on
// first use.
func (s *PosterService) Get(ctx context.Context, entryID int64) (*domain.Blob, error) {
	entry, err := s.catalog.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.ImageURL == "" {
		return nil, domain.ErrNotFound
	}

	blob, err := s.files.Get(ctx, posterKey(entryID))
	if err == nil {
		return blob, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load poster: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	blob, err = s.fetcher.DownloadImage(fetchCtx, entry.ImageURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: poster for %d: %v", domain.ErrProviderUnavailable, entryID, err)
	}

	if err := s.files.Save(ctx, posterKey(entryID), *blob); err != nil {
		// Serving the fresh download still works; the next view retries the save.
		slog.Warn("failed to store poster", "entry_id", entryID, "error", err)
	}
	return blob, nil
}

// Forget drops the stored poster of a deleted entry.
func (s *PosterService) Forget(ctx context.Context, entryID int64) error {
	if err := s.files.Delete(ctx, posterKey(entryID)); err != nil {
		return fmt.Errorf("delete poster: %w", err)
	}
	return nil
}
