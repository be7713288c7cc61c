package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/marquee/internal/domain"
)

// catalogRepo implements domain.CatalogRepository using SQLite.
type catalogRepo struct {
	db *sql.DB
}

const selectMovie = `SELECT id, external_id, title, year, description, img_url, rating, ranking, review, created_at, updated_at
	FROM movies`

func (r *catalogRepo) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (external_id, title, year, description, img_url, rating, ranking, review, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ExternalID, entry.Title, entry.Year, entry.Description, entry.ImageURL,
		entry.Rating, entry.Rank, entry.Review, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateTitle
		}
		return fmt.Errorf("insert movie: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get movie id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (r *catalogRepo) GetByID(ctx context.Context, id int64) (*domain.CatalogEntry, error) {
	return r.getOne(ctx, selectMovie+` WHERE id = ?`, id)
}

func (r *catalogRepo) GetByTitle(ctx context.Context, title string) (*domain.CatalogEntry, error) {
	return r.getOne(ctx, selectMovie+` WHERE title = ?`, title)
}

func (r *catalogRepo) getOne(ctx context.Context, query string, arg any) (*domain.CatalogEntry, error) {
	e, err := scanMovie(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return e, nil
}

func (r *catalogRepo) ListByRank(ctx context.Context) ([]domain.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectMovie+` ORDER BY ranking ASC NULLS FIRST, id ASC`)
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
	result, err := r.db.ExecContext(ctx,
		`UPDATE movies SET rating = ?, ranking = ?, review = ?, updated_at = ? WHERE id = ?`,
		rating.Rating, rating.Rank, rating.Review, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update movie rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *catalogRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanMovie(row rowScanner) (*domain.CatalogEntry, error) {
	var (
		e      domain.CatalogEntry
		rating sql.NullFloat64
		rank   sql.NullInt64
		review sql.NullString
	)
	if err := row.Scan(&e.ID, &e.ExternalID, &e.Title, &e.Year, &e.Description, &e.ImageURL,
		&rating, &rank, &review, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		e.Rating = &rating.Float64
	}
	if rank.Valid {
		v := int(rank.Int64)
		e.Rank = &v
	}
	if review.Valid {
		e.Review = &review.String
	}
	return &e, nil
}
