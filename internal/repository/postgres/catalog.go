package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/marquee/internal/domain"
)

type catalogRepo struct {
	pool *pgxpool.Pool
}

const selectMovie = `SELECT id, external_id, title, year, description, img_url, rating, ranking, review, created_at, updated_at
	FROM movies`

func (r *catalogRepo) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO movies (external_id, title, year, description, img_url, rating, ranking, review)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		entry.ExternalID, entry.Title, entry.Year, entry.Description, entry.ImageURL,
		entry.Rating, entry.Rank, entry.Review,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTitle
		}
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	return r.getOne(ctx, selectMovie+` WHERE id = $1`, id)
}

func (r *catalogRepo) GetByTitle(ctx context.Context, title string) (*domain.CatalogEntry, error) {
	return r.getOne(ctx, selectMovie+` WHERE title = $1`, title)
}

func (r *catalogRepo) getOne(ctx context.Context, query string, arg any) (*domain.CatalogEntry, error) {
	e, err := scanMovie(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return e, nil
}

func (r *catalogRepo) ListByRank(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := r.pool.Query(ctx, selectMovie+` ORDER BY ranking ASC NULLS FIRST, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		e, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *catalogRepo) SetRating(ctx context.Context, id int64, rating domain.Rating) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE movies SET rating = $1, ranking = $2, review = $3, updated_at = NOW() WHERE id = $4`,
		rating.Rating, rating.Rank, rating.Review, id,
	)
	if err != nil {
		return fmt.Errorf("update movie rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *catalogRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM movies WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanMovie relies on pgx scanning NULL into nil pointers.
func scanMovie(row pgx.Row) (*domain.CatalogEntry, error) {
	var (
		e    domain.CatalogEntry
		rank *int32
	)
	if err := row.Scan(&e.ID, &e.ExternalID, &e.Title, &e.Year, &e.Description, &e.ImageURL,
		&e.Rating, &rank, &e.Review, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if rank != nil {
		v := int(*rank)
		e.Rank = &v
	}
	return &e, nil
}
