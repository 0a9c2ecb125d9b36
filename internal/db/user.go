package db

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/superdrive/vehicle-ledger/internal/models"
)

// ErrUserNotFound is returned when no account matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserStore defines the interface for user account operations
type UserStore interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// MemoryUserStore implements UserStore in memory, matching the in-memory
// core. Accounts do not survive a restart.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewMemoryUserStore creates an empty user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

// InsertUser stores a new user account
func (s *MemoryUserStore) InsertUser(ctx context.Context, user models.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true

	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[user.ID] = &u
	return nil
}

// FindUserByID finds a user by their ID
func (s *MemoryUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// FindUserByUsername finds a user by their username
func (s *MemoryUserStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

// FindUserByEmail finds a user by their email
func (s *MemoryUserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

// UpdateUser replaces a stored user account
func (s *MemoryUserStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	user.ID = id
	user.UpdatedAt = time.Now()
	u := user
	s.users[id] = &u
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (s *MemoryUserStore) UpdateLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
	return nil
}
