// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/wattcast/internal/adapters/repository"
	"github.com/okian/wattcast/internal/domain/types"
	"github.com/okian/wattcast/pkg/logger"
)

// User-facing account messages.
const (
	msgFillAllFields      = "Please fill in all fields."
	msgUsernameTaken      = "Username already exists."
	msgRegistered         = "Registration successful! You can now log in."
	msgInvalidCredentials = "Invalid credentials. Try again."
)

// AccountDependencies defines the interface for account operations.
type AccountDependencies interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	Logout(ctx context.Context, token string) error
}

// AccountHandler handles registration, login and logout.
type AccountHandler struct {
	deps AccountDependencies
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps AccountDependencies) *AccountHandler {
	return &AccountHandler{deps: deps}
}

// HandleRegister handles POST /register.
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register"
	fields, err := readFields(w, r, "username", "password")
	if err != nil {
		logger.Get().Debug(r.Context(), "bad register request", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}

	err = h.deps.Register(r.Context(), fields["username"], fields["password"])
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"message": msgRegistered})
	case errors.Is(err, repository.ErrEmptyCredentials):
		writeError(w, http.StatusBadRequest, "empty_credentials", msgFillAllFields)
	case errors.Is(err, repository.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", msgUsernameTaken)
	default:
		logger.Get().Error(r.Context(), "registration failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

// HandleLogin handles POST /login. The token is returned in the body and
// set as the session cookie.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	fields, err := readFields(w, r, "username", "password")
	if err != nil {
		logger.Get().Debug(r.Context(), "bad login request", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}

	token, exp, err := h.deps.Login(r.Context(), fields["username"], fields["password"])
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrInvalidCredentials), errors.Is(err, repository.ErrEmptyCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidCredentials)
		return
	default:
		logger.Get().Error(r.Context(), "login failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, types.Session{Token: token, ExpiresAt: exp})
}

// HandleLogout handles POST /logout. The presented token is revoked and the
// cookie cleared.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Logout(r.Context(), sessionToken(r)); err != nil {
		logger.Get().Warn(r.Context(), "logout could not revoke session", logger.Error(err))
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
