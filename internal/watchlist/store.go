// Package watchlist stores each user's saved movies.
package watchlist

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Entry struct {
	MovieID string    `json:"movieId"`
	AddedAt time.Time `json:"added_at"`
}

type Store interface {
	// Add is idempotent; re-adding refreshes nothing and reports false.
	Add(ctx context.Context, userID int64, movieID string) (added bool, err error)
	Remove(ctx context.Context, userID int64, movieID string) error
	List(ctx context.Context, userID int64) ([]Entry, error)
}
