package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/msomdec/marquee/internal/domain"
)

// MaxCommentLength bounds a comment, in characters.
const MaxCommentLength = 500

// PostInput is the editable part of a post.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImageURL string
}

// PostService manages blog posts and their comments.
type PostService struct {
	posts    domain.PostRepository
	comments domain.CommentRepository
	now      func() time.Time
}

// NewPostService creates a PostService backed by the given repositories.
func NewPostService(posts domain.PostRepository, comments domain.CommentRepository) *PostService {
	return &PostService{posts: posts, comments: comments, now: time.Now}
}

// List returns every post, oldest first.
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

// Get returns a post by ID, or domain.ErrNotFound.
func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Create publishes a post authored by actor, dated today.
func (s *PostService) Create(ctx context.Context, actor *domain.User, in PostInput) (*domain.Post, error) {
	return RequireAdmin(actor, func() (*domain.Post, error) {
		in, err := validatePost(in)
		if err != nil {
			return nil, err
		}
		y, m, d := s.now().Date()
		post := &domain.Post{
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Title:      in.Title,
			Subtitle:   in.Subtitle,
			Body:       in.Body,
			ImageURL:   in.ImageURL,
			Date:       time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		return post, nil
	})
}

// Update overwrites the editable fields. Author and date are kept.
func (s *PostService) Update(ctx context.Context, actor *domain.User, id int64, in PostInput) (*domain.Post, error) {
	return RequireAdmin(actor, func() (*domain.Post, error) {
		in, err := validatePost(in)
		if err != nil {
			return nil, err
		}
		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		post.Title = in.Title
		post.Subtitle = in.Subtitle
		post.Body = in.Body
		post.ImageURL = in.ImageURL
		if err := s.posts.Update(ctx, post); err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}
		return post, nil
	})
}

// Delete removes the post together with its comments.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	_, err := RequireAdmin(actor, func() (struct{}, error) {
		return struct{}{}, s.posts.Delete(ctx, id)
	})
	return err
}

// ListComments returns the comments on a post in the order they were made.
func (s *PostService) ListComments(ctx context.Context, postID int64) ([]domain.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// AddComment attaches a comment by actor to an existing post.
func (s *PostService) AddComment(ctx context.Context, actor *domain.User, postID int64, text string) (*domain.Comment, error) {
	return RequireAuthenticated(actor, func() (*domain.Comment, error) {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: comment must not be empty", domain.ErrInvalidInput)
		}
		if utf8.RuneCountInString(text) > MaxCommentLength {
			return nil, fmt.Errorf("%w: comment must be at most %d characters", domain.ErrInvalidInput, MaxCommentLength)
		}
		if _, err := s.posts.GetByID(ctx, postID); err != nil {
			return nil, err
		}
		comment := &domain.Comment{
			PostID:     postID,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			Text:       text,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, fmt.Errorf("create comment: %w", err)
		}
		return comment, nil
	})
}

func validatePost(in PostInput) (PostInput, error) {
	in.Title = NormalizeTitle(in.Title)
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	in.Body = strings.TrimSpace(in.Body)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.Title == "" || in.Subtitle == "" || in.Body == "" || in.ImageURL == "" {
		return in, fmt.Errorf("%w: title, subtitle, image URL, and content are required", domain.ErrInvalidInput)
	}
	u, err := url.ParseRequestURI(in.ImageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return in, fmt.Errorf("%w: image URL must be an http(s) URL", domain.ErrInvalidInput)
	}
	return in, nil
}
