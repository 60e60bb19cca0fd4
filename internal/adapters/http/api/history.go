// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/types"
)

// HistoryDependencies defines the interface for history reads.
type HistoryDependencies interface {
	GetHistory(ctx context.Context, userID string) []model.HistoryRecord
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history for the logged-in user.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Please log in.")
		return
	}
	writeJSON(w, http.StatusOK, types.FromRecords(h.deps.GetHistory(r.Context(), user)))
}
