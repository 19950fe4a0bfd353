package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresVoteStore persists movie votes and their aggregates in Postgres.
type PostgresVoteStore struct {
	pool *pgxpool.Pool
}

// NewPostgresVoteStore creates a store backed by Postgres.
func NewPostgresVoteStore(pool *pgxpool.Pool) *PostgresVoteStore {
	return &PostgresVoteStore{pool: pool}
}

func (s *PostgresVoteStore) Cast(ctx context.Context, userID int64, movieID string, action VoteAction) (VoteStatus, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the caller's existing vote row so a double-submit serializes here.
	var oldWeight int
	err = tx.QueryRow(ctx,
		`SELECT weight FROM movie_votes WHERE user_id = $1 AND movie_id = $2 FOR UPDATE`,
		userID, movieID).Scan(&oldWeight)

	newWeight := Weight(action)
	var status VoteStatus

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First vote. The unique (user_id, movie_id) constraint catches the
		// racing insert that saw no row either; that loser rolls back whole.
		_, err = tx.Exec(ctx,
			`INSERT INTO movie_votes (user_id, movie_id, weight) VALUES ($1, $2, $3)`,
			userID, movieID, newWeight)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return "", ErrConflict
			}
			return "", err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO movie_rating_totals (movie_id, total_score, total_votes)
			 VALUES ($1, $2, 1)
			 ON CONFLICT (movie_id) DO UPDATE SET
			   total_score = movie_rating_totals.total_score + EXCLUDED.total_score,
			   total_votes = movie_rating_totals.total_votes + 1`,
			movieID, newWeight)
		status = VoteRecorded

	case err != nil:
		return "", err

	case oldWeight == newWeight:
		// Toggle-off: withdraw the vote entirely.
		_, err = tx.Exec(ctx,
			`DELETE FROM movie_votes WHERE user_id = $1 AND movie_id = $2`,
			userID, movieID)
		if err == nil {
			_, err = tx.Exec(ctx,
				`UPDATE movie_rating_totals
				 SET total_score = total_score - $2, total_votes = total_votes - 1
				 WHERE movie_id = $1`,
				movieID, oldWeight)
		}
		status = VoteRemoved

	default:
		// Polarity switch: vote count stays, score moves by the delta.
		_, err = tx.Exec(ctx,
			`UPDATE movie_votes SET weight = $3 WHERE user_id = $1 AND movie_id = $2`,
			userID, movieID, newWeight)
		if err == nil {
			_, err = tx.Exec(ctx,
				`UPDATE movie_rating_totals SET total_score = total_score + $2
				 WHERE movie_id = $1`,
				movieID, newWeight-oldWeight)
		}
		status = VoteUpdated
	}
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return status, nil
}

func (s *PostgresVoteStore) Aggregate(ctx context.Context, movieID string) (MovieAggregate, error) {
	const q = `SELECT total_score, total_votes FROM movie_rating_totals WHERE movie_id = $1`
	agg := MovieAggregate{MovieID: movieID}
	err := s.pool.QueryRow(ctx, q, movieID).Scan(&agg.TotalScore, &agg.TotalVotes)
	if errors.Is(err, pgx.ErrNoRows) {
		return agg, nil
	}
	if err != nil {
		return MovieAggregate{MovieID: movieID}, err
	}
	return agg, nil
}

func (s *PostgresVoteStore) UserVote(ctx context.Context, userID int64, movieID string) (VoteAction, bool, error) {
	const q = `SELECT weight FROM movie_votes WHERE user_id = $1 AND movie_id = $2`
	var w int
	err := s.pool.QueryRow(ctx, q, userID, movieID).Scan(&w)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return actionForWeight(w), true, nil
}
