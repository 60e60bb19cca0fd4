package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newAccounts(t *testing.T, seed map[string]string) *InMemoryAccountStore {
	t.Helper()
	s, err := NewInMemoryAccountStore(context.Background(), WithBcryptCost(bcrypt.MinCost), WithSeedUsers(seed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestAccountStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := newAccounts(t, map[string]string{"admin": "1234"})

	if err := s.Authenticate(ctx, "admin", "1234"); err != nil {
		t.Errorf("seed user should authenticate: %v", err)
	}
	if err := s.Authenticate(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.Authenticate(ctx, "ghost", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if s.Count(ctx) != 1 {
		t.Errorf("expected 1 account, got %d", s.Count(ctx))
	}
}

func TestAccountStore_Register(t *testing.T) {
	ctx := context.Background()
	s := newAccounts(t, nil)

	tests := []struct {
		name     string
		user     string
		password string
		want     error
	}{
		{"new user", "alice", "secret", nil},
		{"duplicate", "alice", "other", ErrUserExists},
		{"empty username", "", "secret", ErrEmptyCredentials},
		{"empty password", "bob", "", ErrEmptyCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Register(ctx, tt.user, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := s.Authenticate(ctx, "alice", "secret"); err != nil {
		t.Errorf("original password should still work: %v", err)
	}
}

func TestAccountStore_ConcurrentRegisterSameName(t *testing.T) {
	ctx := context.Background()
	s := newAccounts(t, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Register(ctx, "race", "pw"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one successful registration, got %d", succeeded)
	}
}
