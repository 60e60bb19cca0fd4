// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/types"
)

// Dependencies required by HTTP handlers. The service satisfies it; tests
// use fakes.
type Dependencies interface {
	HandlePredictionRequest(ctx context.Context, userID string, fields map[string]string) model.Outcome
	HandleLegacyPredictionRequest(ctx context.Context, fields map[string]string) model.Outcome
	GetHistory(ctx context.Context, userID string) []model.HistoryRecord

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error

	Contact(ctx context.Context, msg model.ContactMessage) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps Dependencies

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	historyHandler *HistoryHandler
	accountHandler *AccountHandler
	contactHandler *ContactHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:           deps,
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		historyHandler: NewHistoryHandler(deps),
		accountHandler: NewAccountHandler(deps),
		contactHandler: NewContactHandler(deps),
	}
}

// Register attaches all HTTP routes to r. Middleware is scoped to the
// API group so r may already carry other routes.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)

		r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
		r.Get("/metrics", s.healthHandler.HandleMetrics)
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

		r.Post("/register", MetricsMiddleware(s.accountHandler.HandleRegister, "register"))
		r.Post("/login", MetricsMiddleware(s.accountHandler.HandleLogin, "login"))
		r.Post("/legacy/predict", MetricsMiddleware(s.predictHandler.HandleLegacyPredict, "legacy_predict"))

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.deps))
			r.Post("/logout", MetricsMiddleware(s.accountHandler.HandleLogout, "logout"))
			r.Post("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
			r.Get("/history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
			r.Post("/contact", MetricsMiddleware(s.contactHandler.HandlePostContact, "contact"))
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, types.Error{Code: code, Message: message})
}
