package domain

import (
	"context"
	"time"
)

// DefaultStatus is assigned to every new account.
const DefaultStatus = "I am new!"

// User represents a registered user of the feed.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Status       string
	PostIDs      []string // owned posts, oldest first
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the part of a user exposed as a post creator.
type UserSummary struct {
	ID   string
	Name string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create assigns ID and timestamps. Returns ErrDuplicateEmail when the
	// email is already registered.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateStatus(ctx context.Context, id, status string) (*User, error)
	// AddPost appends postID to the user's owned posts. Adding an id that is
	// already present is a no-op.
	AddPost(ctx context.Context, userID, postID string) error
	// RemovePost drops postID from the user's owned posts. Removing an absent
	// id is a no-op.
	RemovePost(ctx context.Context, userID, postID string) error
}
