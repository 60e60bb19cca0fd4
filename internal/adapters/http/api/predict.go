// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/reading"
	"github.com/okian/wattcast/internal/domain/types"
	"github.com/okian/wattcast/pkg/logger"
)

const pipelineErrorMessage = "Prediction failed. Please try again later."

// PredictDependencies defines the interface for prediction requests.
type PredictDependencies interface {
	HandlePredictionRequest(ctx context.Context, userID string, fields map[string]string) model.Outcome
	HandleLegacyPredictionRequest(ctx context.Context, fields map[string]string) model.Outcome
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps PredictDependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict for a logged-in user.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Please log in.")
		return
	}
	fields, err := readFields(w, r, reading.Fields...)
	if err != nil {
		logger.Get().Debug(r.Context(), "bad predict request", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}
	writeOutcome(w, h.deps.HandlePredictionRequest(r.Context(), user, fields))
}

// HandleLegacyPredict handles POST /legacy/predict. It needs no session and
// keeps no history.
func (h *PredictHandler) HandleLegacyPredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.legacy_predict"
	fields, err := readFields(w, r, reading.Fields...)
	if err != nil {
		logger.Get().Debug(r.Context(), "bad legacy predict request", logger.Error(wrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", "")
		return
	}
	writeOutcome(w, h.deps.HandleLegacyPredictionRequest(r.Context(), fields))
}

// writeOutcome maps a prediction outcome to its HTTP response.
func writeOutcome(w http.ResponseWriter, o model.Outcome) {
	switch v := o.(type) {
	case model.Success:
		writeJSON(w, http.StatusOK, types.FromResult(v.Result))
	case model.ValidationFailure:
		writeError(w, http.StatusUnprocessableEntity, string(v.Reason), v.Message)
	case model.PipelineFailure:
		writeJSON(w, http.StatusInternalServerError, types.Error{
			Code:           "pipeline_error",
			Message:        pipelineErrorMessage,
			Recommendation: v.Recommendation,
		})
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
