package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrEmptySubject = errors.New("session subject is required")
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
	ErrRevokedToken = errors.New("session token revoked")
)
