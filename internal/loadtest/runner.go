package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wattcast/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrNoUsers is returned when the configuration drives nobody.
var ErrNoUsers = errors.New("loadtest: at least one user is required")

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Users < 1 {
		return nil, ErrNoUsers
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting wattcast load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.Users),
		logger.Int("predictionsPerUser", config.PredictionsPer),
		logger.Int("invalidEvery", config.InvalidEvery),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register and log in every user
	users := generateUsers(config.Users)
	tokens, err := setupAccounts(ctx, config, client, users, stats)
	if err != nil {
		return stats, fmt.Errorf("account setup failed: %w", err)
	}

	// Step 3: Generate readings
	requests := generateRequests(ctx, config, users, stats)

	// Step 4: Submit predictions, one goroutine per user in flight
	results := submitPredictions(ctx, config, client, tokens, requests, stats)

	// Step 5: Read every history back
	histories, err := retrieveHistories(ctx, config, client, tokens, stats)
	if err != nil {
		return stats, fmt.Errorf("history retrieval failed: %w", err)
	}

	// Step 6: Verify results
	if err := verifyResults(ctx, results, histories); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save readings to file
	if config.OutputFile != "" {
		if err := saveRequestsToFile(ctx, config.OutputFile, requests); err != nil {
			log.Warn(ctx, "failed to save requests to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_ = readJSON(resp, nil)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// setupAccounts registers and logs in users concurrently.
func setupAccounts(ctx context.Context, config *Config, client *HTTPClient, users []string, stats *Stats) (map[string]string, error) {
	var (
		mu     sync.Mutex
		tokens = make(map[string]string, len(users))
		errs   []error
		wg     sync.WaitGroup
	)
	userChan := make(chan string, config.Workers*WorkerChannelMultiplier)

	for i := 0; i < minInt(config.Workers, len(users)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range userChan {
				token, err := client.signUp(ctx, user)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					tokens[user] = token
				}
				mu.Unlock()
			}
		}()
	}
	for _, user := range users {
		userChan <- user
	}
	close(userChan)
	wg.Wait()

	stats.UsersRegistered = len(tokens)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return tokens, nil
}

// submitPredictions drives users concurrently. Each user's requests are
// sent one after another so its history order is the submission order.
func submitPredictions(ctx context.Context, config *Config, client *HTTPClient, tokens map[string]string, requests map[string][]Request, stats *Stats) map[string][]Result {
	var ok, rejected, failed, submitted int64

	var (
		mu      sync.Mutex
		results = make(map[string][]Result, len(requests))
		wg      sync.WaitGroup
	)
	userChan := make(chan string, config.Workers*WorkerChannelMultiplier)

	for i := 0; i < minInt(config.Workers, len(requests)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range userChan {
				rs := make([]Result, 0, len(requests[user]))
				for _, req := range requests[user] {
					if ctx.Err() != nil {
						break
					}
					res, outcome := client.predict(ctx, tokens[user], req)
					atomic.AddInt64(&submitted, 1)
					switch outcome {
					case outcomeOK:
						atomic.AddInt64(&ok, 1)
					case outcomeRejected:
						atomic.AddInt64(&rejected, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
					rs = append(rs, res)
				}
				mu.Lock()
				results[user] = rs
				mu.Unlock()
				if config.Verbose {
					logger.Get().Debug(ctx, "user done", logger.String("user", user), logger.Int("requests", len(rs)))
				}
			}
		}()
	}

	for user := range requests {
		userChan <- user
	}
	close(userChan)
	wg.Wait()

	stats.PredictionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.PredictionsOK = int(atomic.LoadInt64(&ok))
	stats.PredictionsRejected = int(atomic.LoadInt64(&rejected))
	stats.PredictionsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "prediction submission completed",
		logger.Int("ok", stats.PredictionsOK),
		logger.Int("rejected", stats.PredictionsRejected),
		logger.Int("failed", stats.PredictionsFailed))
	return results
}

// saveRequestsToFile writes the generated requests as a JSON array.
func saveRequestsToFile(ctx context.Context, filename string, requests map[string][]Request) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	all := make([]Request, 0, len(requests))
	for _, rs := range requests {
		all = append(all, rs...)
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal requests: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "requests saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.PredictionsSubmitted > 0 {
		successRate = float64(stats.PredictionsOK) / float64(stats.PredictionsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.PredictionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("usersRegistered", stats.UsersRegistered),
		logger.Int("predictionsGenerated", stats.PredictionsGenerated),
		logger.Int("predictionsSubmitted", stats.PredictionsSubmitted),
		logger.Int("predictionsOK", stats.PredictionsOK),
		logger.Int("predictionsRejected", stats.PredictionsRejected),
		logger.Int("predictionsFailed", stats.PredictionsFailed),
		logger.Int("historyRecords", stats.HistoryRecords),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
