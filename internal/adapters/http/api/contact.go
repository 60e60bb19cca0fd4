// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/wattcast/internal/app"
	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/pkg/logger"
)

// ContactDependencies defines the interface for contact submissions.
type ContactDependencies interface {
	Contact(ctx context.Context, msg model.ContactMessage) error
}

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	deps ContactDependencies
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(deps ContactDependencies) *ContactHandler {
	return &ContactHandler{deps: deps}
}

type contactAck struct {
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// HandlePostContact handles POST /contact.
func (h *ContactHandler) HandlePostContact(w http.ResponseWriter, r *http.Request) {
	const op = "api.contact"
	fields, err := readFields(w, r, "name", "email", "message")
	if err != nil {
		logger.Get().Debug(r.Context(), "bad contact request", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}
	user, _ := UserFromContext(r.Context())

	err = h.deps.Contact(r.Context(), model.ContactMessage{
		User:    user,
		Name:    fields["name"],
		Email:   fields["email"],
		Message: fields["message"],
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", "Please write a message.")
		return
	default:
		logger.Get().Error(r.Context(), "contact failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusAccepted, contactAck{Status: "received", Name: fields["name"]})
}
