package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msomdec/marquee/internal/domain"
)

const (
	// PosterPrefix turns a provider poster_path into the stored image URL.
	PosterPrefix = "https://image.tmdb.org/t/p/w600_and_h900_bestv2"

	// ThumbnailPrefix turns a poster_path into the small image shown next to a search result.
	ThumbnailPrefix = "https://image.tmdb.org/t/p/w94_and_h141_bestv2"

	// MaxReviewLength bounds a review, in characters.
	MaxReviewLength = 250

	defaultProviderTimeout = 10 * time.Second
)

// CatalogService runs the search, materialize and finalize workflow of the
// movie catalog.
type CatalogService struct {
	catalog  domain.CatalogRepository
	provider domain.MetadataProvider
	timeout  time.Duration
}

// NewCatalogService bounds every provider call by timeout.
func NewCatalogService(catalog domain.CatalogRepository, provider domain.MetadataProvider, timeout time.Duration) *CatalogService {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &CatalogService{catalog: catalog, provider: provider, timeout: timeout}
}

// Search asks the provider for candidates. Nothing is stored.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search title is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	candidates, err := s.provider.SearchMovies(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", domain.ErrProviderUnavailable, query, err)
	}
	return candidates, nil
}

// Materialize fetches the provider record and stores it as a provisional
// entry. If the provider fails nothing is written.
func (s *CatalogService) Materialize(ctx context.Context, externalID int64) (*domain.CatalogEntry, error) {
	if externalID <= 0 {
		return nil, fmt.Errorf("%w: external id must be positive", domain.ErrInvalidInput)
	}

	details, err := s.fetchDetails(ctx, externalID)
	if err != nil {
		return nil, err
	}

	title := NormalizeTitle(details.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: movie %d has no title", domain.ErrProviderUnavailable, externalID)
	}
	entry := &domain.CatalogEntry{
		ExternalID:  externalID,
		Title:       title,
		Year:        ReleaseYear(details.ReleaseDate),
		Description: details.Overview,
		ImageURL:    PosterURL(details.PosterPath),
	}
	if err := s.catalog.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create catalog entry: %w", err)
	}

	// Resolve by title so the caller sees exactly what was committed.
	stored, err := s.catalog.GetByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog entry: %w", err)
	}
	return stored, nil
}

func (s *CatalogService) fetchDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	details, err := s.provider.MovieDetails(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("movie %d: %w", externalID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: movie %d: %v", domain.ErrProviderUnavailable, externalID, err)
	}
	return details, nil
}

// Finalize attaches a rating, rank and review, replacing earlier values.
func (s *CatalogService) Finalize(ctx context.Context, id int64, r domain.Rating) (*domain.CatalogEntry, error) {
	r.Review = strings.TrimSpace(r.Review)
	if err := validateRating(r); err != nil {
		return nil, err
	}
	if err := s.catalog.SetRating(ctx, id, r); err != nil {
		return nil, err
	}
	return s.catalog.GetByID(ctx, id)
}

// List returns the catalog by rank ascending, unranked entries first.
func (s *CatalogService) List(ctx context.Context) ([]domain.CatalogEntry, error) {
	return s.catalog.ListByRank(ctx)
}

// Get returns an entry by ID, or domain.ErrNotFound.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	return s.catalog.GetByID(ctx, id)
}

// Delete removes an entry. Deleting an unknown ID is domain.ErrNotFound.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return s.catalog.Delete(ctx, id)
}

func validateRating(r domain.Rating) error {
	if math.IsNaN(r.Rating) || r.Rating < 0 || r.Rating > 10 {
		return fmt.Errorf("%w: rating must be between 0 and 10", domain.ErrInvalidInput)
	}
	if r.Rank < 1 {
		return fmt.Errorf("%w: ranking must be 1 or more", domain.ErrInvalidInput)
	}
	if r.Review == "" {
		return fmt.Errorf("%w: review is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(r.Review) > MaxReviewLength {
		return fmt.Errorf("%w: review must be at most %d characters", domain.ErrInvalidInput, MaxReviewLength)
	}
	return nil
}

// ReleaseYear returns the leading year of a "YYYY-MM-DD" date, or 0.
func ReleaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil || year < 0 {
		return 0
	}
	return year
}

// PosterURL builds the stored image URL. Movies without a poster get "".
func PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return PosterPrefix + posterPath
}

// ThumbnailURL is PosterURL for the search result thumbnails.
func ThumbnailURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return ThumbnailPrefix + posterPath
}
