package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryCommentStore is a development and test implementation.
type InMemoryCommentStore struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]Comment
	votes    map[int64]map[int64]int16 // commentID -> userID -> vote
	users    UserResolver
	now      func() time.Time
}

func NewInMemoryCommentStore(users UserResolver) *InMemoryCommentStore {
	return &InMemoryCommentStore{
		nextID:   1,
		comments: make(map[int64]Comment),
		votes:    make(map[int64]map[int64]int16),
		users:    users,
		now:      time.Now,
	}
}

// SetClock overrides the time source. Tests use it to step past the cooldown.
func (s *InMemoryCommentStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryCommentStore) Create(_ context.Context, userID int64, movieID, content string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var last time.Time
	for _, c := range s.comments {
		if c.UserID == userID && c.MovieID == movieID && c.CreatedAt.After(last) {
			last = c.CreatedAt
		}
	}
	if !last.IsZero() {
		if since := now.Sub(last); since < CooldownWindow {
			return Comment{}, &CooldownError{Remaining: CooldownWindow - since}
		}
	}

	c := Comment{
		ID:        s.nextID,
		MovieID:   movieID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
	}
	s.nextID++
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) UpdateContent(_ context.Context, commentID, userID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.UserID != userID {
		return ErrNotFoundOrForbidden
	}
	c.Content = content
	now := s.now()
	c.UpdatedAt = &now
	s.comments[commentID] = c
	return nil
}

func (s *InMemoryCommentStore) Delete(_ context.Context, commentID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.UserID != userID {
		return ErrNotFoundOrForbidden
	}
	delete(s.comments, commentID)
	delete(s.votes, commentID)
	return nil
}

func (s *InMemoryCommentStore) ListByMovie(ctx context.Context, movieID string) ([]EnrichedComment, error) {
	s.mu.Lock()

	var picked []Comment
	for _, c := range s.comments {
		if c.MovieID == movieID {
			picked = append(picked, c)
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		if !picked[i].CreatedAt.Equal(picked[j].CreatedAt) {
			return picked[i].CreatedAt.Before(picked[j].CreatedAt)
		}
		return picked[i].ID < picked[j].ID
	})

	ids := make([]int64, 0, len(picked))
	for _, c := range picked {
		ids = append(ids, c.UserID)
	}
	tallies := make(map[int64][2]int64, len(picked))
	for _, c := range picked {
		var up, down int64
		for _, v := range s.votes[c.ID] {
			if v == 1 {
				up++
			} else {
				down++
			}
		}
		tallies[c.ID] = [2]int64{up, down}
	}
	s.mu.Unlock()

	authors := map[int64]UserInfo{}
	if s.users != nil {
		resolved, err := s.users.Resolve(ctx, ids)
		if err != nil {
			return nil, err
		}
		authors = resolved
	}

	out := make([]EnrichedComment, 0, len(picked))
	for _, c := range picked {
		info := authors[c.UserID]
		t := tallies[c.ID]
		out = append(out, EnrichedComment{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			UserID:    c.UserID,
			Username:  info.Username,
			Avatar:    info.Avatar,
			Upvotes:   t[0],
			Downvotes: t[1],
		})
	}
	return out, nil
}

func (s *InMemoryCommentStore) Vote(_ context.Context, commentID, userID int64, action CommentVoteAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return ErrNotFound
	}
	if s.votes[commentID] == nil {
		s.votes[commentID] = make(map[int64]int16)
	}

	want := commentVoteValue(action)
	old, exists := s.votes[commentID][userID]
	switch {
	case !exists:
		s.votes[commentID][userID] = want
	case old == want:
		delete(s.votes[commentID], userID)
	default:
		s.votes[commentID][userID] = want
	}
	return nil
}
