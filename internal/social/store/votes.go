// Package store persists the social state: the movie vote ledger with its
// aggregate totals, comments with the posting cooldown, and comment votes.
package store

import (
	"context"
	"errors"
)

// VoteAction is a movie vote polarity.
type VoteAction string

const (
	ActionLike    VoteAction = "like"
	ActionDislike VoteAction = "dislike"
)

// Vote weights. A like is worth 10 points, a dislike 1.
const (
	likeWeight    = 10
	dislikeWeight = 1
)

// Weight returns the score contribution of an action.
func Weight(a VoteAction) int {
	if a == ActionLike {
		return likeWeight
	}
	return dislikeWeight
}

func actionForWeight(w int) VoteAction {
	if w == likeWeight {
		return ActionLike
	}
	return ActionDislike
}

// ValidVoteAction reports whether a is a known polarity.
func ValidVoteAction(a VoteAction) bool {
	return a == ActionLike || a == ActionDislike
}

// VoteStatus describes what a Cast call did to the ledger.
type VoteStatus string

const (
	VoteRecorded VoteStatus = "recorded" // first vote inserted
	VoteUpdated  VoteStatus = "updated"  // polarity switched in place
	VoteRemoved  VoteStatus = "removed"  // same action repeated, vote withdrawn
)

// MovieAggregate is the cached projection of the vote ledger for one movie.
// It must always equal what replaying the ledger would produce.
type MovieAggregate struct {
	MovieID    string `json:"movieId"`
	TotalScore int64  `json:"totalScore"`
	TotalVotes int64  `json:"totalVotes"`
}

// VoteStore is the movie vote ledger plus its aggregate counter. The two are
// updated together in every Cast call; Aggregate never recomputes from rows.
type VoteStore interface {
	// Cast applies one like/dislike action for (userID, movieID):
	// no existing vote inserts, same polarity removes (toggle-off),
	// opposite polarity updates in place.
	Cast(ctx context.Context, userID int64, movieID string, action VoteAction) (VoteStatus, error)
	// Aggregate returns the running totals; unknown movies yield zeros.
	Aggregate(ctx context.Context, movieID string) (MovieAggregate, error)
	// UserVote returns the caller's current polarity, if any.
	UserVote(ctx context.Context, userID int64, movieID string) (VoteAction, bool, error)
}

// Sentinel errors shared by the social stores.
var (
	ErrConflict            = errors.New("concurrent vote conflict")
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = errors.New("comment not found or not owned by user")
)
