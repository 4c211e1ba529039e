package domain

import (
	"context"
	"time"
)

// Post is a feed entry owned by exactly one user. CreatorID never changes
// after creation.
type Post struct {
	ID        string
	Title     string
	Content   string
	ImageURL  string
	CreatorID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FeedPost is a post with its creator resolved by an explicit user lookup.
type FeedPost struct {
	Post
	Creator UserSummary
}

// PostPage is one page of the feed, newest first.
type PostPage struct {
	Posts      []FeedPost
	TotalCount int
	Page       int
	PerPage    int
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	// GetByImageURL returns the post currently referencing imageURL.
	GetByImageURL(ctx context.Context, imageURL string) (*Post, error)
	// ListPage returns posts ordered by creation time descending together
	// with the total number of posts.
	ListPage(ctx context.Context, offset, limit int) ([]Post, int, error)
	// Update persists title, content and image URL. The creator is not
	// written.
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id string) error
}
