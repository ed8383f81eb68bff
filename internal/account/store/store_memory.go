package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"campusbourses/internal/account"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
)

// InMemory keeps accounts in process memory.
type InMemory struct {
	mu    sync.RWMutex
	users map[domain.UserID]*account.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[domain.UserID]*account.User)}
}

func (s *InMemory) Create(_ context.Context, user *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return sentinel.ErrConflict
		}
	}
	cp := copyUser(user)
	s.users[user.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.UserID) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			return copyUser(user), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, copyUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func copyUser(u *account.User) *account.User {
	cp := *u
	cp.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &cp
}
