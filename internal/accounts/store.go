// Package accounts owns users, credentials, tokens, email delivery and
// avatars.
package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Avatar       *string
	IsVerified   bool
	CreatedAt    time.Time
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

type UpdateProfileParams struct {
	Username string
	Email    string
}

type UserStore interface {
	Create(ctx context.Context, p CreateUserParams) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	MarkVerified(ctx context.Context, email string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateProfile(ctx context.Context, id int64, p UpdateProfileParams) error
	UpdateAvatar(ctx context.Context, id int64, avatar string) error
}
