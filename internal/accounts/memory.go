package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	socialstore "github.com/example/movie-platform/internal/social/store"
)

// InMemoryUserStore backs tests and development runs without a database.
type InMemoryUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
	now    func() time.Time
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[int64]User), now: time.Now}
}

func (s *InMemoryUserStore) SetClock(now func() time.Time) { s.now = now }

func (s *InMemoryUserStore) Create(_ context.Context, p CreateUserParams) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, p.Email) || strings.EqualFold(u.Username, p.Username) {
			return User{}, ErrConflict
		}
	}
	s.nextID++
	u := User{
		ID:           s.nextID,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *InMemoryUserStore) ByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemoryUserStore) ByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) MarkVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.IsVerified = true
			s.users[id] = u
			return nil
		}
	}
	return ErrNotFound
}

func (s *InMemoryUserStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *InMemoryUserStore) UpdateProfile(_ context.Context, id int64, p UpdateProfileParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if strings.EqualFold(other.Email, p.Email) || strings.EqualFold(other.Username, p.Username) {
			return ErrConflict
		}
	}
	u.Username = p.Username
	u.Email = p.Email
	s.users[id] = u
	return nil
}

func (s *InMemoryUserStore) UpdateAvatar(_ context.Context, id int64, avatar string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Avatar = &avatar
	s.users[id] = u
	return nil
}

// Resolve lets the in-memory comment store enrich comments with author info.
func (s *InMemoryUserStore) Resolve(_ context.Context, ids []int64) (map[int64]socialstore.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int64]socialstore.UserInfo, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = socialstore.UserInfo{Username: u.Username, Avatar: u.Avatar}
		}
	}
	return out, nil
}
