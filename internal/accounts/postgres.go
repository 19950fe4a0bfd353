package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	socialstore "github.com/example/movie-platform/internal/social/store"
)

type PostgresUserStore struct {
	DB *pgxpool.Pool
}

func NewPostgresUserStore(db *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{DB: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, p CreateUserParams) (User, error) {
	var u User
	q := `
INSERT INTO users (username, email, password_hash, is_verified)
VALUES ($1, $2, $3, false)
RETURNING id, username, email, password_hash, avatar, is_verified, created_at;
`
	err := s.DB.QueryRow(ctx, q, p.Username, p.Email, p.PasswordHash).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		// unique violation
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) ByEmail(ctx context.Context, email string) (User, error) {
	q := `
SELECT id, username, email, password_hash, avatar, is_verified, created_at
FROM users
WHERE lower(email) = lower($1)
LIMIT 1;
`
	return s.scanOne(ctx, q, email)
}

func (s *PostgresUserStore) ByID(ctx context.Context, id int64) (User, error) {
	q := `
SELECT id, username, email, password_hash, avatar, is_verified, created_at
FROM users
WHERE id = $1;
`
	return s.scanOne(ctx, q, id)
}

func (s *PostgresUserStore) scanOne(ctx context.Context, q string, arg any) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, q, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresUserStore) MarkVerified(ctx context.Context, email string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET is_verified = true WHERE lower(email) = lower($1);`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1;`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) UpdateProfile(ctx context.Context, id int64, p UpdateProfileParams) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET username = $2, email = $3 WHERE id = $1;`, id, p.Username, p.Email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUserStore) UpdateAvatar(ctx context.Context, id int64, avatar string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET avatar = $2 WHERE id = $1;`, id, avatar)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Resolve satisfies the comment enrichment lookup for callers that do not
// join users in SQL.
func (s *PostgresUserStore) Resolve(ctx context.Context, ids []int64) (map[int64]socialstore.UserInfo, error) {
	if len(ids) == 0 {
		return map[int64]socialstore.UserInfo{}, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT id, username, avatar FROM users WHERE id = ANY($1);`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]socialstore.UserInfo, len(ids))
	for rows.Next() {
		var id int64
		var info socialstore.UserInfo
		if err := rows.Scan(&id, &info.Username, &info.Avatar); err != nil {
			return nil, err
		}
		out[id] = info
	}
	return out, rows.Err()
}
