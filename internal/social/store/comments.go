package store

import (
	"context"
	"fmt"
	"time"
)

// CooldownWindow is the minimum interval between two comments by the same
// author on the same movie. Enforced server-side; client timers are UX only.
const CooldownWindow = 60 * time.Second

// CooldownError rejects a comment posted inside the cooldown window.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before commenting again", e.RetryAfterSeconds())
}

// RetryAfterSeconds is the remaining wait rounded up to whole seconds.
func (e *CooldownError) RetryAfterSeconds() int {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Comment is a single comment row.
type Comment struct {
	ID        int64      `json:"id"`
	MovieID   string     `json:"movieId"`
	UserID    int64      `json:"userId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CommentVoteAction is a comment vote polarity.
type CommentVoteAction string

const (
	ActionUpvote   CommentVoteAction = "upvote"
	ActionDownvote CommentVoteAction = "downvote"
)

// ValidCommentVoteAction reports whether a is a known polarity.
func ValidCommentVoteAction(a CommentVoteAction) bool {
	return a == ActionUpvote || a == ActionDownvote
}

func commentVoteValue(a CommentVoteAction) int16 {
	if a == ActionUpvote {
		return 1
	}
	return -1
}

// EnrichedComment is the read-side shape: the comment joined with its
// author's display data and the current vote tallies. Tallies are counted
// fresh on every read, unlike the movie aggregate which is maintained
// incrementally.
type EnrichedComment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Avatar    *string   `json:"avatar,omitempty"`
	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
}

// UserInfo is the author display data joined into EnrichedComment.
type UserInfo struct {
	Username string
	Avatar   *string
}

// UserResolver looks up author display data for enrichment. The Postgres
// comment store joins the users table directly; the in-memory store needs
// this indirection.
type UserResolver interface {
	Resolve(ctx context.Context, ids []int64) (map[int64]UserInfo, error)
}

// CommentStore is the comment collection for movies, including the posting
// cooldown and per-comment votes.
type CommentStore interface {
	// Create inserts a comment. Posting again on the same movie inside
	// CooldownWindow returns *CooldownError; other movies are unaffected.
	Create(ctx context.Context, userID int64, movieID, content string) (Comment, error)
	// UpdateContent edits a comment; only the author may. Missing ids and
	// foreign comments both return ErrNotFoundOrForbidden.
	UpdateContent(ctx context.Context, commentID, userID int64, content string) error
	// Delete removes a comment and its votes; same ownership rule.
	Delete(ctx context.Context, commentID, userID int64) error
	// ListByMovie returns enriched comments in insertion order.
	ListByMovie(ctx context.Context, movieID string) ([]EnrichedComment, error)
	// Vote applies an upvote/downvote with toggle semantics: no vote
	// inserts, same polarity removes, opposite polarity switches in place.
	// Unknown comments return ErrNotFound.
	Vote(ctx context.Context, commentID, userID int64, action CommentVoteAction) error
}
