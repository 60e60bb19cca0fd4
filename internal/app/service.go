// Package service provides the core prediction service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/wattcast/internal/adapters/mq/queue"
	workerpool "github.com/okian/wattcast/internal/adapters/mq/worker"
	"github.com/okian/wattcast/internal/adapters/repository"
	"github.com/okian/wattcast/internal/domain/advice"
	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/internal/domain/reading"
	"github.com/okian/wattcast/pkg/logger"
	"github.com/okian/wattcast/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultVoltage       = 240.0
	DefaultLegacyVoltage = 0.0
	DefaultPrecision     = 8
	defaultQueueSize     = 1024
	defaultWorkerCount   = 2
	defaultHistoryShards = 16
	stopTimeout          = 10 * time.Second
)

// Predictor estimates global active power from validated readings.
type Predictor interface {
	Infer(r reading.ReadingSet, voltage float64) (float64, error)
}

// SessionIssuer issues and verifies session tokens.
type SessionIssuer interface {
	Issue(username string) (string, time.Time, error)
	Verify(token string) (string, error)
	Revoke(token string) error
}

// Service wires validation, inference, recommendation and history together.
type Service struct {
	mu sync.RWMutex

	// Core components
	predictor Predictor
	history   repository.HistoryStore
	accounts  repository.AccountStore
	issuer    SessionIssuer

	// Publishing
	sink        workerpool.Sink
	eventQueue  *eventqueue.InMemoryQueue
	workerPool  *workerpool.Pool
	queueSize   int
	workerCount int

	// Configuration
	voltage       float64
	legacyVoltage float64
	precision     int
	historyShards int
	seedUsers     map[string]string
	bcryptCost    int

	now   func() time.Time
	newID func() string

	// State
	started      bool
	ownedHistory *repository.ShardedHistoryStore

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		voltage:       DefaultVoltage,
		legacyVoltage: DefaultLegacyVoltage,
		precision:     DefaultPrecision,
		queueSize:     defaultQueueSize,
		workerCount:   defaultWorkerCount,
		historyShards: defaultHistoryShards,
		seedUsers:     map[string]string{"admin": "1234"},
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds any missing components and starts event publishing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.predictor == nil {
		return ErrNoPredictor
	}
	if s.issuer == nil {
		return ErrNoIssuer
	}

	s.logger.Info(ctx, "starting prediction service...")

	if s.history == nil {
		s.ownedHistory = repository.NewShardedHistoryStore(ctx, repository.WithShardCount(s.historyShards))
		s.history = s.ownedHistory
	}
	if s.accounts == nil {
		accounts, err := repository.NewInMemoryAccountStore(ctx,
			repository.WithBcryptCost(s.bcryptCost),
			repository.WithSeedUsers(s.seedUsers),
		)
		if err != nil {
			return fmt.Errorf("build account store: %w", err)
		}
		s.accounts = accounts
	}
	for u := range s.seedUsers {
		s.history.Ensure(ctx, u)
	}

	if s.sink != nil {
		s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
		s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.sink)
		// Workers outlive the start context; Stop drains and ends them.
		s.workerPool.Start(context.WithoutCancel(ctx))
	}

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Float64("voltage", s.voltage),
		logger.Float64("legacyVoltage", s.legacyVoltage),
		logger.Int("precision", s.precision),
		logger.Bool("publishing", s.sink != nil),
	)
	return nil
}

// Stop drains pending events and releases background resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping prediction service...")

	if s.workerPool != nil {
		sctx, cancel := context.WithTimeout(ctx, stopTimeout)
		if err := s.workerPool.Shutdown(sctx); err != nil {
			s.logger.Warn(ctx, "event publishing did not drain", logger.Error(err))
		}
		cancel()
	}
	if closer, ok := s.sink.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "error closing event sink", logger.Error(err))
		}
	}
	if s.ownedHistory != nil {
		_ = s.ownedHistory.Close()
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped")
}

type components struct {
	predictor Predictor
	history   repository.HistoryStore
	accounts  repository.AccountStore
	issuer    SessionIssuer
	queue     *eventqueue.InMemoryQueue
}

func (s *Service) components() (components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return components{}, ErrNotStarted
	}
	return components{
		predictor: s.predictor,
		history:   s.history,
		accounts:  s.accounts,
		issuer:    s.issuer,
		queue:     s.eventQueue,
	}, nil
}

// HandlePredictionRequest validates fields, runs the pipeline with the
// configured voltage and, on success, appends one record to userID's history.
func (s *Service) HandlePredictionRequest(ctx context.Context, userID string, fields map[string]string) model.Outcome {
	c, err := s.components()
	if err != nil {
		return model.PipelineFailure{Detail: err.Error()}
	}

	rs, outcome := s.predict(ctx, c, userID, fields, s.voltage, s.precision, model.InterfacePrimary)
	success, ok := outcome.(model.Success)
	if !ok {
		return outcome
	}

	ts := s.now()
	id := s.newID()
	c.history.Append(ctx, userID, model.NewHistoryRecord(id, ts, rs, success.Result))
	s.publish(ctx, c, model.PredictionEvent{
		ID:          id,
		User:        userID,
		Interface:   model.InterfacePrimary,
		Timestamp:   ts,
		Inputs:      rs,
		Voltage:     s.voltage,
		Prediction:  success.Result.Value,
		TopSubmeter: int(success.Result.TopSubmeter),
	})
	return outcome
}

// HandleLegacyPredictionRequest serves the legacy single-form interface. It
// uses the legacy voltage, does not round and records no history.
func (s *Service) HandleLegacyPredictionRequest(ctx context.Context, fields map[string]string) model.Outcome {
	c, err := s.components()
	if err != nil {
		return model.PipelineFailure{Detail: err.Error()}
	}

	rs, outcome := s.predict(ctx, c, "", fields, s.legacyVoltage, -1, model.InterfaceLegacy)
	if success, ok := outcome.(model.Success); ok {
		s.publish(ctx, c, model.PredictionEvent{
			ID:          s.newID(),
			Interface:   model.InterfaceLegacy,
			Timestamp:   s.now(),
			Inputs:      rs,
			Voltage:     s.legacyVoltage,
			Prediction:  success.Result.Value,
			TopSubmeter: int(success.Result.TopSubmeter),
		})
	}
	return outcome
}

func (s *Service) predict(ctx context.Context, c components, userID string, fields map[string]string, voltage float64, precision int, iface string) (reading.ReadingSet, model.Outcome) {
	rs, err := reading.Validate(fields)
	if err != nil {
		reason, _ := reading.ReasonOf(err)
		metrics.RecordPrediction(string(model.KindValidationFailure), iface)
		s.logger.Debug(ctx, "rejected readings",
			logger.String("user", userID),
			logger.String("reason", string(reason)),
		)
		return reading.ReadingSet{}, model.ValidationFailure{Reason: reason, Message: err.Error()}
	}

	top, recommendation := advice.Select(rs.SubMetering1, rs.SubMetering2, rs.SubMetering3)

	start := time.Now()
	value, err := c.predictor.Infer(rs, voltage)
	metrics.RecordInferenceLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordPrediction(string(model.KindPipelineFailure), iface)
		s.logger.Error(ctx, "inference failed",
			logger.String("user", userID),
			logger.String("interface", iface),
			logger.Error(err),
		)
		return rs, model.PipelineFailure{Detail: err.Error(), TopSubmeter: top, Recommendation: recommendation}
	}

	metrics.RecordPrediction(string(model.KindSuccess), iface)
	return rs, model.Success{Result: model.PredictionResult{
		Value:          Round(value, precision),
		TopSubmeter:    top,
		Recommendation: recommendation,
	}}
}

func (s *Service) publish(ctx context.Context, c components, e model.PredictionEvent) {
	if c.queue == nil {
		return
	}
	if !c.queue.Enqueue(ctx, e) {
		s.logger.Warn(ctx, "prediction event dropped", logger.String("event_id", e.ID))
	}
}

// Round rounds v to digits decimals using the shortest correctly rounded
// decimal form. A negative digits returns v unchanged.
func Round(v float64, digits int) float64 {
	if digits < 0 {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// GetHistory returns userID's records in insertion order. It never mutates
// the ledger.
func (s *Service) GetHistory(ctx context.Context, userID string) []model.HistoryRecord {
	c, err := s.components()
	if err != nil {
		return []model.HistoryRecord{}
	}
	return c.history.Get(ctx, userID)
}

// Register creates an account and an empty history for it.
func (s *Service) Register(ctx context.Context, username, password string) error {
	c, err := s.components()
	if err != nil {
		return err
	}
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)

	if err := c.accounts.Register(ctx, username, password); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			metrics.RecordRegistration("duplicate")
		case errors.Is(err, repository.ErrEmptyCredentials):
			metrics.RecordRegistration("invalid")
		default:
			metrics.RecordRegistration("error")
		}
		return err
	}
	c.history.Ensure(ctx, username)
	metrics.RecordRegistration("success")
	s.logger.Info(ctx, "user registered", logger.String("user", username))
	return nil
}

// Login checks credentials, makes sure the user has a history and issues a
// session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	c, err := s.components()
	if err != nil {
		return "", time.Time{}, err
	}
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)

	if err := c.accounts.Authenticate(ctx, username, password); err != nil {
		metrics.RecordLogin("invalid")
		s.logger.Debug(ctx, "login rejected", logger.String("user", username))
		return "", time.Time{}, err
	}
	token, exp, err := c.issuer.Issue(username)
	if err != nil {
		metrics.RecordLogin("error")
		return "", time.Time{}, fmt.Errorf("issue session: %w", err)
	}
	c.history.Ensure(ctx, username)
	metrics.RecordLogin("success")
	return token, exp, nil
}

// Authenticate resolves a session token to its username.
func (s *Service) Authenticate(_ context.Context, token string) (string, error) {
	c, err := s.components()
	if err != nil {
		return "", err
	}
	user, err := c.issuer.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return user, nil
}

// Logout revokes a session token so it stops authenticating before it
// expires.
func (s *Service) Logout(ctx context.Context, token string) error {
	c, err := s.components()
	if err != nil {
		return err
	}
	if err := c.issuer.Revoke(token); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	s.logger.Debug(ctx, "session revoked")
	return nil
}

// Contact records a contact form submission in the log.
func (s *Service) Contact(ctx context.Context, msg model.ContactMessage) error {
	if strings.TrimSpace(msg.Message) == "" {
		return ErrEmptyMessage
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = s.now()
	}
	metrics.RecordContactMessage()
	log := s.logger
	if log == nil {
		log = logger.Get()
	}
	log.Info(ctx, "contact message received",
		logger.String("user", msg.User),
		logger.String("name", msg.Name),
		logger.String("email", msg.Email),
		logger.String("message", msg.Message),
		logger.Time("receivedAt", msg.ReceivedAt),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"voltage":       s.voltage,
		"legacyVoltage": s.legacyVoltage,
		"precision":     s.precision,
		"publishing":    s.sink != nil,
	}
	if d, ok := s.predictor.(interface{ Describe() string }); ok {
		stats["pipeline"] = d.Describe()
	}

	if s.started {
		users := s.history.Users(ctx)
		records := s.history.Count(ctx)
		stats["historyUsers"] = users
		stats["historyRecords"] = records
		stats["accounts"] = s.accounts.Count(ctx)
		metrics.UpdateHistoryUsers(users)
		metrics.UpdateHistoryRecords(records)

		if s.eventQueue != nil {
			stats["queueLength"] = s.eventQueue.Len(ctx)
			stats["queueCapacity"] = s.eventQueue.Capacity()
			stats["workerCount"] = s.workerPool.Size()
		}
	}
	return stats
}
