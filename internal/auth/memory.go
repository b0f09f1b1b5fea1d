package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"finledger.org/internal/ids"
)

var _ CredentialStore = (*MemStore)(nil)

// MemStore is the process-local CredentialStore used in development mode
// and tests. All mutations run under one lock, which trivially serializes
// the read-modify-write cycle per record.
type MemStore struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemStore constructs an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		byID:       make(map[string]*User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (s *MemStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	username := strings.ToLower(u.Username)
	if _, ok := s.byEmail[email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byUsername[username]; ok {
		return ErrUsernameTaken
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[email] = u.ID
	s.byUsername[username] = u.ID
	return nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(id)
}

func (s *MemStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copyOf(id)
}

func (s *MemStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	return s.copyOf(id)
}

func (s *MemStore) RecordFailure(_ context.Context, userID string, threshold int, lockUntil time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return false, ErrNotFound
	}
	u.FailedAttempts++
	u.UpdatedAt = time.Now().UTC()
	if u.FailedAttempts >= threshold {
		until := lockUntil
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true, nil
	}
	return false, nil
}

func (s *MemStore) RecordSuccess(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.FailedAttempts = 0
	u.LockedUntil = nil
	last := at
	u.LastLogin = &last
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemStore) Unlock(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemStore) SetActive(_ context.Context, userID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	if active {
		u.FailedAttempts = 0
		u.LockedUntil = nil
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemStore) copyOf(id string) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	if u.LockedUntil != nil {
		until := *u.LockedUntil
		cp.LockedUntil = &until
	}
	if u.LastLogin != nil {
		last := *u.LastLogin
		cp.LastLogin = &last
	}
	return &cp, nil
}
