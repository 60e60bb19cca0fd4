package repository

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// InMemoryAccountStore keeps bcrypt password hashes in memory.
type InMemoryAccountStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	cost   int
	seed   map[string]string
}

// NewInMemoryAccountStore builds the store and registers any seed users.
func NewInMemoryAccountStore(ctx context.Context, opts ...AccountOption) (*InMemoryAccountStore, error) {
	s := &InMemoryAccountStore{
		hashes: make(map[string][]byte),
		cost:   bcrypt.DefaultCost,
		seed:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	for u, p := range s.seed {
		if err := s.Register(ctx, u, p); err != nil {
			return nil, fmt.Errorf("seed user %q: %w", u, err)
		}
	}
	s.seed = nil
	return s, nil
}

// Register implements AccountStore.Register.
func (s *InMemoryAccountStore) Register(_ context.Context, username, password string) error {
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}

	s.mu.RLock()
	_, exists := s.hashes[username]
	s.mu.RUnlock()
	if exists {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hashes[username]; exists {
		return ErrUserExists
	}
	s.hashes[username] = hash
	return nil
}

// Authenticate implements AccountStore.Authenticate.
func (s *InMemoryAccountStore) Authenticate(_ context.Context, username, password string) error {
	s.mu.RLock()
	hash, ok := s.hashes[username]
	s.mu.RUnlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Count implements AccountStore.Count.
func (s *InMemoryAccountStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hashes)
}
