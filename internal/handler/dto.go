package handler

import (
	"time"

	"github.com/msomdec/postfeed/internal/domain"
)

// CreatorDTO is the JSON representation of a post's creator.
type CreatorDTO struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// PostDTO is the JSON representation of a post with its creator resolved.
type PostDTO struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ImageURL  string     `json:"imageUrl"`
	Creator   CreatorDTO `json:"creator"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

// ToPostDTO converts a feed post to its JSON shape. Both the REST facade and
// the push channel send posts in this shape.
func ToPostDTO(p domain.FeedPost) PostDTO {
	return PostDTO{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   CreatorDTO{ID: p.Creator.ID, Name: p.Creator.Name},
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func toPostDTOs(posts []domain.FeedPost) []PostDTO {
	dtos := make([]PostDTO, len(posts))
	for i, p := range posts {
		dtos[i] = ToPostDTO(p)
	}
	return dtos
}

// FieldErrorDTO is one entry of an error response's data list.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorDTO is the body of every error response.
type ErrorDTO struct {
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    []FieldErrorDTO `json:"data,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
