package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrNoPredictor    = errors.New("service requires a predictor")
	ErrNoIssuer       = errors.New("service requires a session issuer")
	ErrEmptyMessage   = errors.New("contact message is empty")
	ErrInvalidSession = errors.New("invalid session")
)
