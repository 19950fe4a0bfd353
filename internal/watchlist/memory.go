package watchlist

import (
	"context"
	"sort"
	"sync"
	"time"
)

type InMemoryStore struct {
	mu      sync.Mutex
	entries map[int64]map[string]time.Time
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[int64]map[string]time.Time), now: time.Now}
}

func (s *InMemoryStore) SetClock(now func() time.Time) { s.now = now }

func (s *InMemoryStore) Add(_ context.Context, userID int64, movieID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byMovie := s.entries[userID]
	if byMovie == nil {
		byMovie = make(map[string]time.Time)
		s.entries[userID] = byMovie
	}
	if _, exists := byMovie[movieID]; exists {
		return false, nil
	}
	byMovie[movieID] = s.now()
	return true, nil
}

func (s *InMemoryStore) Remove(_ context.Context, userID int64, movieID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byMovie := s.entries[userID]
	if _, exists := byMovie[movieID]; !exists {
		return ErrNotFound
	}
	delete(byMovie, movieID)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, userID int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []Entry{}
	for movieID, addedAt := range s.entries[userID] {
		entries = append(entries, Entry{MovieID: movieID, AddedAt: addedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.After(entries[j].AddedAt)
		}
		return entries[i].MovieID > entries[j].MovieID
	})
	return entries, nil
}
