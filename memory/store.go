// Package memory defines the memory store interface the tool dispatcher's
// search_memory/remember tools call, and provides a default badger-backed
// implementation so the binary is runnable and testable standalone, without
// depending on an external full-text index.
package memory

import (
	"context"
	"time"
)

// Match is a single search result.
type Match struct {
	ID        string
	Score     float64
	Snippet   string
	CreatedAt time.Time
}

// Store is the interface the tool dispatcher depends on.
type Store interface {
	Search(ctx context.Context, query string, limit int) ([]Match, error)
	Remember(ctx context.Context, content string, tags []string) (id string, createdAt time.Time, err error)
}
