package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/msomdec/marquee/internal/domain"
)

type commentRepo struct {
	pool *pgxpool.Pool
}

func (r *commentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, author_id, text) VALUES ($1, $2, $3) RETURNING id, created_at`,
		comment.PostID, comment.AuthorID, comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepo) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.post_id, c.author_id, u.name, c.text, c.created_at
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = $1 ORDER BY c.id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
