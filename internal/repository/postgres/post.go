package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/marquee/internal/domain"
)

type postRepo struct {
	pool *pgxpool.Pool
}

const selectPost = `SELECT p.id, p.author_id, u.name, p.title, p.subtitle, p.body, p.img_url, p.date
	FROM blog_posts p JOIN users u ON u.id = p.author_id`

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	date := post.Date.UTC().Truncate(24 * time.Hour)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO blog_posts (author_id, title, subtitle, body, img_url, date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		post.AuthorID, post.Title, post.Subtitle, post.Body, post.ImageURL, date,
	).Scan(&post.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTitle
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown author %d", domain.ErrInvalidInput, post.AuthorID)
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	p, err := scanPost(r.pool.QueryRow(ctx, selectPost+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *postRepo) List(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, selectPost+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *postRepo) Update(ctx context.Context, post *domain.Post) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE blog_posts SET title = $1, subtitle = $2, body = $3, img_url = $4 WHERE id = $5`,
		post.Title, post.Subtitle, post.Body, post.ImageURL, post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTitle
		}
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete relies on the ON DELETE CASCADE of comments.post_id.
func (r *postRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM blog_posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Subtitle, &p.Body, &p.ImageURL, &p.Date); err != nil {
		return nil, err
	}
	p.Date = p.Date.UTC()
	return &p, nil
}
