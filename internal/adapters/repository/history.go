package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/wattcast/internal/domain/model"
	"github.com/okian/wattcast/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
)

// userHistory is one user's append-only sequence.
type userHistory struct {
	mu      sync.Mutex
	records []model.HistoryRecord
}

func (h *userHistory) append(r model.HistoryRecord) {
	h.mu.Lock()
	h.records = append(h.records, r)
	h.mu.Unlock()
}

func (h *userHistory) snapshot() []model.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.records)
}

func (h *userHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

type shard struct {
	mu    sync.RWMutex
	users map[string]*userHistory
}

// ShardedHistoryStore is an in-memory HistoryStore. Users are spread over a
// fixed set of shards by xxhash; each shard guards its user map and each
// user sequence has its own mutex, so appends for different users rarely
// contend and appends for the same user are serialized.
type ShardedHistoryStore struct {
	shards                []*shard
	shardCount            int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewShardedHistoryStore constructs the ledger and starts its metrics updater.
func NewShardedHistoryStore(ctx context.Context, opts ...Option) *ShardedHistoryStore {
	s := &ShardedHistoryStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{users: make(map[string]*userHistory)}
	}

	s.stopChan = make(chan struct{})
	metrics.UpdateHistoryShardCount(s.shardCount)
	s.startMetricsUpdater(ctx)
	return s
}

func (s *ShardedHistoryStore) shardFor(userID string) *shard {
	return s.shards[xxhash.Sum64String(userID)%uint64(len(s.shards))]
}

// lookup returns the user's history, creating it when create is set.
func (s *ShardedHistoryStore) lookup(userID string, create bool) *userHistory {
	sh := s.shardFor(userID)

	sh.mu.RLock()
	h, ok := sh.users[userID]
	sh.mu.RUnlock()
	if ok || !create {
		return h
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if h, ok = sh.users[userID]; ok {
		return h
	}
	h = &userHistory{}
	sh.users[userID] = h
	return h
}

// Append implements HistoryStore.Append.
func (s *ShardedHistoryStore) Append(_ context.Context, userID string, record model.HistoryRecord) {
	s.lookup(userID, true).append(record)
	metrics.RecordHistoryAppend()
}

// Get implements HistoryStore.Get.
func (s *ShardedHistoryStore) Get(_ context.Context, userID string) []model.HistoryRecord {
	h := s.lookup(userID, false)
	if h == nil {
		return []model.HistoryRecord{}
	}
	out := h.snapshot()
	if out == nil {
		return []model.HistoryRecord{}
	}
	return out
}

// Ensure implements HistoryStore.Ensure.
func (s *ShardedHistoryStore) Ensure(_ context.Context, userID string) {
	s.lookup(userID, true)
}

// Count implements HistoryStore.Count.
func (s *ShardedHistoryStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, h := range sh.users {
			total += h.len()
		}
		sh.mu.RUnlock()
	}
	return total
}

// Users implements HistoryStore.Users.
func (s *ShardedHistoryStore) Users(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.users)
		sh.mu.RUnlock()
	}
	return total
}

// ShardCount returns the number of shards.
func (s *ShardedHistoryStore) ShardCount() int { return len(s.shards) }

// Close stops the metrics updater.
func (s *ShardedHistoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *ShardedHistoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics(ctx)
			}
		}
	}()
}

func (s *ShardedHistoryStore) updateMetrics(ctx context.Context) {
	metrics.UpdateHistoryUsers(s.Users(ctx))
	metrics.UpdateHistoryRecords(s.Count(ctx))
}
