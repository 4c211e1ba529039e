package domain

import "context"

// Database defines lifecycle operations for the document store backing the
// feed. Each implementation (SQLite, MongoDB) owns its own schema or index
// setup, so the backend is selected at startup without touching services.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
	Users() UserRepository
	Posts() PostRepository
}
