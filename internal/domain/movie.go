package domain

import (
	"context"
	"time"
)

// UnsetReview is what an unreviewed entry displays.
const UnsetReview = "none"

// CatalogEntry is a movie in the personal ranking. Rating, Rank and Review
// stay nil until the entry is finalized.
type CatalogEntry struct {
	ID          int64
	ExternalID  int64
	Title       string
	Year        int
	Description string
	ImageURL    string
	Rating      *float64
	Rank        *int
	Review      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Finalized reports whether a rating has been attached.
func (e *CatalogEntry) Finalized() bool {
	return e.Rating != nil && e.Rank != nil && e.Review != nil
}

// RatingValue returns the rating, or 0 when unrated.
func (e *CatalogEntry) RatingValue() float64 {
	if e.Rating == nil {
		return 0
	}
	return *e.Rating
}

// RankValue returns the rank, or 0 when unranked.
func (e *CatalogEntry) RankValue() int {
	if e.Rank == nil {
		return 0
	}
	return *e.Rank
}

// ReviewText returns the review, or UnsetReview when none was written.
func (e *CatalogEntry) ReviewText() string {
	if e.Review == nil {
		return UnsetReview
	}
	return *e.Review
}

// Rating is the personal annotation attached by the finalize step.
type Rating struct {
	Rating float64
	Rank   int
	Review string
}

// CatalogRepository defines persistence operations for catalog entries.
type CatalogRepository interface {
	Create(ctx context.Context, entry *CatalogEntry) error
	GetByID(ctx context.Context, id int64) (*CatalogEntry, error)
	GetByTitle(ctx context.Context, title string) (*CatalogEntry, error)
	// ListByRank orders by rank ascending; unranked entries sort first.
	ListByRank(ctx context.Context) ([]CatalogEntry, error)
	SetRating(ctx context.Context, id int64, rating Rating) error
	Delete(ctx context.Context, id int64) error
}

// Candidate is one search hit from the metadata provider.
type Candidate struct {
	ExternalID  int64
	Title       string
	ReleaseDate string
	Overview    string
	PosterPath  string
}

// MovieDetails is the provider's full record for one movie.
type MovieDetails struct {
	ExternalID  int64
	Title       string
	ReleaseDate string // "YYYY-MM-DD" or empty
	Overview    string
	PosterPath  string
}

// MetadataProvider is the external movie database.
type MetadataProvider interface {
	SearchMovies(ctx context.Context, query string) ([]Candidate, error)
	MovieDetails(ctx context.Context, externalID int64) (*MovieDetails, error)
}
