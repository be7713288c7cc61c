package handler

import (
	"time"

	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/view"
)

// PostDTO is the JSON representation of a blog post.
type PostDTO struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
	ImageURL string `json:"imgUrl"`
	Author   string `json:"author"`
	Date     string `json:"date"`
}

func toPostDTO(p *domain.Post) PostDTO {
	return PostDTO{
		ID:       p.ID,
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Body:     p.Body,
		ImageURL: p.ImageURL,
		Author:   p.AuthorName,
		Date:     p.Date.Format(view.DateLayout),
	}
}

func toPostDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, len(posts))
	for i := range posts {
		dtos[i] = toPostDTO(&posts[i])
	}
	return dtos
}

// CommentDTO is the JSON representation of a comment.
type CommentDTO struct {
	ID        int64  `json:"id"`
	PostID    int64  `json:"postId"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

func toCommentDTOs(comments []domain.Comment) []CommentDTO {
	dtos := make([]CommentDTO, len(comments))
	for i, c := range comments {
		dtos[i] = CommentDTO{
			ID:        c.ID,
			PostID:    c.PostID,
			Author:    c.AuthorName,
			Text:      c.Text,
			CreatedAt: c.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// MovieDTO is the JSON representation of a catalog entry. Rating, ranking
// and review are null until the entry is finalized.
type MovieDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imgUrl"`
	Rating      *float64 `json:"rating"`
	Ranking     *int     `json:"ranking"`
	Review      *string  `json:"review"`
}

func toMovieDTOs(entries []domain.CatalogEntry) []MovieDTO {
	dtos := make([]MovieDTO, len(entries))
	for i, e := range entries {
		dtos[i] = MovieDTO{
			ID:          e.ID,
			Title:       e.Title,
			Year:        e.Year,
			Description: e.Description,
			ImageURL:    e.ImageURL,
			Rating:      e.Rating,
			Ranking:     e.Rank,
			Review:      e.Review,
		}
	}
	return dtos
}
