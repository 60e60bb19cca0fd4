package loadtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/wattcast/internal/domain/types"
	"github.com/okian/wattcast/pkg/logger"
)

// retrieveHistories fetches every user's history concurrently.
func retrieveHistories(ctx context.Context, config *Config, client *HTTPClient, tokens map[string]string, stats *Stats) (map[string][]types.HistoryEntry, error) {
	logger.Get().Info(ctx, "retrieving histories", logger.Int("users", len(tokens)), logger.Int("workers", config.Workers))

	var (
		mu       sync.Mutex
		out      = make(map[string][]types.HistoryEntry, len(tokens))
		firstErr error
	)

	userChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < minInt(config.Workers, len(tokens)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range userChan {
				rows, err := client.history(ctx, tokens[user])
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", user, err)
				}
				out[user] = rows
				stats.HistoryRecords += len(rows)
				mu.Unlock()
			}
		}()
	}

feed:
	for user := range tokens {
		select {
		case <-ctx.Done():
			break feed
		case userChan <- user:
		}
	}
	close(userChan)
	wg.Wait()

	if firstErr != nil {
		return out, firstErr
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("history retrieval cancelled: %w", err)
	}
	return out, nil
}
