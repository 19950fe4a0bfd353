package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore persists comments and comment votes in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

func (s *PostgresCommentStore) Create(ctx context.Context, userID int64, movieID, content string) (Comment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Comment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the author row so the check-and-insert below cannot race with a
	// near-simultaneous post from another session.
	var authorID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&authorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}

	var last time.Time
	err = tx.QueryRow(ctx,
		`SELECT created_at FROM comments
		 WHERE user_id = $1 AND movie_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, movieID).Scan(&last)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// first comment on this movie
	case err != nil:
		return Comment{}, err
	default:
		if since := time.Since(last); since < CooldownWindow {
			return Comment{}, &CooldownError{Remaining: CooldownWindow - since}
		}
	}

	c := Comment{MovieID: movieID, UserID: userID, Content: content}
	err = tx.QueryRow(ctx,
		`INSERT INTO comments (user_id, movie_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		userID, movieID, content).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Comment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Comment{}, err
	}
	return c, nil
}

func (s *PostgresCommentStore) UpdateContent(ctx context.Context, commentID, userID int64, content string) error {
	const q = `UPDATE comments SET content = $1, updated_at = now()
	           WHERE id = $2 AND user_id = $3`
	tag, err := s.pool.Exec(ctx, q, content, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *PostgresCommentStore) Delete(ctx context.Context, commentID, userID int64) error {
	// comment_votes rows go with the comment via ON DELETE CASCADE.
	const q = `DELETE FROM comments WHERE id = $1 AND user_id = $2`
	tag, err := s.pool.Exec(ctx, q, commentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}

func (s *PostgresCommentStore) ListByMovie(ctx context.Context, movieID string) ([]EnrichedComment, error) {
	const q = `
SELECT c.id, c.content, c.created_at, c.user_id, u.username, u.avatar,
       COUNT(*) FILTER (WHERE cv.vote = 1)  AS upvotes,
       COUNT(*) FILTER (WHERE cv.vote = -1) AS downvotes
FROM comments c
JOIN users u ON u.id = c.user_id
LEFT JOIN comment_votes cv ON cv.comment_id = c.id
WHERE c.movie_id = $1
GROUP BY c.id, c.content, c.created_at, c.user_id, u.username, u.avatar
ORDER BY c.created_at ASC, c.id ASC`

	rows, err := s.pool.Query(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EnrichedComment{}
	for rows.Next() {
		var ec EnrichedComment
		if err := rows.Scan(&ec.ID, &ec.Content, &ec.CreatedAt, &ec.UserID,
			&ec.Username, &ec.Avatar, &ec.Upvotes, &ec.Downvotes); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

func (s *PostgresCommentStore) Vote(ctx context.Context, commentID, userID int64, action CommentVoteAction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	want := commentVoteValue(action)

	var old int16
	err = tx.QueryRow(ctx,
		`SELECT vote FROM comment_votes WHERE comment_id = $1 AND user_id = $2 FOR UPDATE`,
		commentID, userID).Scan(&old)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = tx.Exec(ctx,
			`INSERT INTO comment_votes (comment_id, user_id, vote) VALUES ($1, $2, $3)`,
			commentID, userID, want)
	case err != nil:
		return err
	case old == want:
		// Toggle-off: repeating the same action withdraws the vote.
		_, err = tx.Exec(ctx,
			`DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2`,
			commentID, userID)
	default:
		_, err = tx.Exec(ctx,
			`UPDATE comment_votes SET vote = $3 WHERE comment_id = $1 AND user_id = $2`,
			commentID, userID, want)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
