package domain

import (
	"context"
	"time"
)

// Post is a blog entry written by an admin.
type Post struct {
	ID         int64
	AuthorID   int64
	AuthorName string // Filled by repository joins; not persisted on the post row.
	Title      string
	Subtitle   string
	Body       string
	ImageURL   string
	Date       time.Time // Calendar date of creation (midnight UTC).
}

// Comment is a reader's remark on a post.
type Comment struct {
	ID         int64
	PostID     int64
	AuthorID   int64
	AuthorName string
	Text       string
	CreatedAt  time.Time
}

// PostRepository defines persistence operations for blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context) ([]Post, error)
	// Update overwrites title, subtitle, body and image. Author and date are kept.
	Update(ctx context.Context, post *Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id int64) error
}

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByPost(ctx context.Context, postID int64) ([]Comment, error)
}
