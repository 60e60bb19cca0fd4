// Package repository holds the in-memory history ledger and account store.
package repository

import (
	"context"

	"github.com/okian/wattcast/internal/domain/model"
)

// HistoryStore keeps each user's successful predictions in insertion order.
// Records are never mutated or removed.
type HistoryStore interface {
	// Append adds record to the end of userID's history, creating the
	// history if it does not exist yet.
	Append(ctx context.Context, userID string, record model.HistoryRecord)

	// Get returns a copy of userID's history in insertion order. Unknown
	// users get an empty slice.
	Get(ctx context.Context, userID string) []model.HistoryRecord

	// Ensure creates an empty history for userID if none exists.
	Ensure(ctx context.Context, userID string)

	// Count returns the total number of records held.
	Count(ctx context.Context) int

	// Users returns the number of users with a history.
	Users(ctx context.Context) int
}

// AccountStore maps usernames to credentials.
type AccountStore interface {
	// Register creates an account. It fails with ErrEmptyCredentials or ErrUserExists.
	Register(ctx context.Context, username, password string) error

	// Authenticate checks the password. It fails with ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) error

	// Count returns the number of accounts.
	Count(ctx context.Context) int
}
