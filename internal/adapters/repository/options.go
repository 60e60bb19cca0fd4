package repository

import "time"

// Option applies a configuration option to the ShardedHistoryStore.
type Option func(*ShardedHistoryStore)

// WithShardCount sets the number of ledger shards.
func WithShardCount(n int) Option {
	return func(s *ShardedHistoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedHistoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// AccountOption applies a configuration option to the InMemoryAccountStore.
type AccountOption func(*InMemoryAccountStore)

// WithBcryptCost sets the bcrypt work factor for new passwords.
func WithBcryptCost(cost int) AccountOption {
	return func(s *InMemoryAccountStore) {
		if cost > 0 {
			s.cost = cost
		}
	}
}

// WithSeedUsers registers the given username/password pairs at construction.
func WithSeedUsers(users map[string]string) AccountOption {
	return func(s *InMemoryAccountStore) {
		for u, p := range users {
			s.seed[u] = p
		}
	}
}
