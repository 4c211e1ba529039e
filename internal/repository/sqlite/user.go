package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/postfeed/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite. The owned
// posts list lives in user_posts, ordered by insertion.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	if user.Status == "" {
		user.Status = domain.DefaultStatus
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, user.Email, user.Name, user.PasswordHash, user.Status, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.PostIDs = nil
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.User, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user status: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) AddPost(ctx context.Context, userID, postID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_posts (user_id, post_id) VALUES (?, ?)",
		userID, postID,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("add user post: %w", err)
	}
	return r.touch(ctx, userID)
}

func (r *UserRepository) RemovePost(ctx context.Context, userID, postID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM user_posts WHERE user_id = ? AND post_id = ?",
		userID, postID,
	)
	if err != nil {
		return fmt.Errorf("remove user post: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	return r.touch(ctx, userID)
}

func (r *UserRepository) touch(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET updated_at = ? WHERE id = ?", time.Now().UTC(), userID,
	); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}
	return nil
}

// getOne loads a user by a unique column along with its owned post ids.
func (r *UserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, status, created_at, updated_at
		 FROM users WHERE `+column+` = ?`, value,
	).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT post_id FROM user_posts WHERE user_id = ? ORDER BY seq", user.ID)
	if err != nil {
		return nil, fmt.Errorf("query user posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		if err := rows.Scan(&postID); err != nil {
			return nil, fmt.Errorf("scan user post: %w", err)
		}
		user.PostIDs = append(user.PostIDs, postID)
	}
	return user, rows.Err()
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
