package watchlist

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) Add(ctx context.Context, userID int64, movieID string) (bool, error) {
	q := `
INSERT INTO watchlist (user_id, movie_id)
VALUES ($1, $2)
ON CONFLICT (user_id, movie_id) DO NOTHING;
`
	tag, err := s.DB.Exec(ctx, q, userID, movieID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID int64, movieID string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2;`, userID, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, userID int64) ([]Entry, error) {
	q := `
SELECT movie_id, added_at
FROM watchlist
WHERE user_id = $1
ORDER BY added_at DESC, movie_id DESC;
`
	rows, err := s.DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.MovieID, &e.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
