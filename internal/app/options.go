package service

import (
	"math"
	"time"

	"github.com/okian/wattcast/internal/adapters/mq/worker"
	"github.com/okian/wattcast/internal/adapters/repository"
	"github.com/okian/wattcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPredictor sets the inference pipeline.
func WithPredictor(p Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// WithHistoryStore sets the history ledger. Without it Start builds a
// sharded in-memory ledger.
func WithHistoryStore(h repository.HistoryStore) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithAccountStore sets the account store. Without it Start builds an
// in-memory store holding the seed users.
func WithAccountStore(a repository.AccountStore) Option {
	return func(s *Service) {
		if a != nil {
			s.accounts = a
		}
	}
}

// WithSessionIssuer sets the session token issuer.
func WithSessionIssuer(i SessionIssuer) Option {
	return func(s *Service) {
		if i != nil {
			s.issuer = i
		}
	}
}

// WithVoltage sets the voltage used by the primary interface.
func WithVoltage(v float64) Option {
	return func(s *Service) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			s.voltage = v
		}
	}
}

// WithLegacyVoltage sets the voltage used by the legacy interface.
func WithLegacyVoltage(v float64) Option {
	return func(s *Service) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			s.legacyVoltage = v
		}
	}
}

// WithPrecision sets the number of decimals predictions are rounded to on
// the primary interface. A negative value disables rounding.
func WithPrecision(digits int) Option {
	return func(s *Service) {
		s.precision = digits
	}
}

// WithHistoryShards sets the shard count of the default ledger.
func WithHistoryShards(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyShards = n
		}
	}
}

// WithSeedUsers sets the accounts registered in the default account store.
func WithSeedUsers(users map[string]string) Option {
	return func(s *Service) {
		s.seedUsers = users
	}
}

// WithBcryptCost sets the bcrypt cost of the default account store.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

// WithEventSink enables publishing of prediction events to sink.
func WithEventSink(sink worker.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithPublishQueueSize sets the capacity of the event queue.
func WithPublishQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithPublishWorkers sets the number of publishing workers.
func WithPublishWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how record and event ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
