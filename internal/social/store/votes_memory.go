package store

import (
	"context"
	"sync"
)

// InMemoryVoteStore is a development and test implementation. It maintains
// the aggregate incrementally, mirroring the Postgres store, so the
// ledger/projection invariant can be exercised without a database.
type InMemoryVoteStore struct {
	mu         sync.Mutex
	votes      map[string]map[int64]int // movieID -> userID -> weight
	aggregates map[string]*MovieAggregate
}

func NewInMemoryVoteStore() *InMemoryVoteStore {
	return &InMemoryVoteStore{
		votes:      make(map[string]map[int64]int),
		aggregates: make(map[string]*MovieAggregate),
	}
}

func (s *InMemoryVoteStore) Cast(_ context.Context, userID int64, movieID string, action VoteAction) (VoteStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.votes[movieID] == nil {
		s.votes[movieID] = make(map[int64]int)
	}
	agg := s.aggregates[movieID]
	if agg == nil {
		agg = &MovieAggregate{MovieID: movieID}
		s.aggregates[movieID] = agg
	}

	newWeight := Weight(action)
	oldWeight, exists := s.votes[movieID][userID]

	switch {
	case !exists:
		s.votes[movieID][userID] = newWeight
		agg.TotalScore += int64(newWeight)
		agg.TotalVotes++
		return VoteRecorded, nil
	case oldWeight == newWeight:
		delete(s.votes[movieID], userID)
		agg.TotalScore -= int64(oldWeight)
		agg.TotalVotes--
		return VoteRemoved, nil
	default:
		s.votes[movieID][userID] = newWeight
		agg.TotalScore += int64(newWeight - oldWeight)
		return VoteUpdated, nil
	}
}

func (s *InMemoryVoteStore) Aggregate(_ context.Context, movieID string) (MovieAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agg := s.aggregates[movieID]; agg != nil {
		return *agg, nil
	}
	return MovieAggregate{MovieID: movieID}, nil
}

func (s *InMemoryVoteStore) UserVote(_ context.Context, userID int64, movieID string) (VoteAction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.votes[movieID][userID]
	if !ok {
		return "", false, nil
	}
	return actionForWeight(w), true, nil
}

// ReplayAggregate recomputes totals from the raw ledger. Tests compare it
// against Aggregate to verify the cached projection never drifts.
func (s *InMemoryVoteStore) ReplayAggregate(movieID string) MovieAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := MovieAggregate{MovieID: movieID}
	for _, w := range s.votes[movieID] {
		agg.TotalScore += int64(w)
		agg.TotalVotes++
	}
	return agg
}
