package repository

import "errors"

// Sentinel kinds for account errors.
var (
	ErrEmptyCredentials   = errors.New("username and password are required")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
