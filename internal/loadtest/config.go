package loadtest

import (
	"time"

	"github.com/okian/wattcast/internal/domain/types"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Users          int           // Accounts to register and drive
	PredictionsPer int           // Predictions submitted by each user
	InvalidEvery   int           // Every Nth reading is invalid; 0 disables
	Workers        int           // Concurrent users in flight
	Timeout        time.Duration // HTTP request timeout
	Seed           uint64        // Reading generator seed
	OutputFile     string        // Output file for generated readings
	Verbose        bool          // Enable verbose logging
}

// Request is one generated prediction request. Values are the text a form
// would submit.
type Request struct {
	User   string            `json:"user"`
	Fields map[string]string `json:"fields"`
	Valid  bool              `json:"valid"`
}

// Result pairs a request with the service's answer.
type Result struct {
	Request    Request
	StatusCode int
	Prediction types.Prediction
}

// Stats holds test statistics.
type Stats struct {
	UsersRegistered      int
	PredictionsGenerated int
	PredictionsSubmitted int
	PredictionsOK        int
	PredictionsRejected  int
	PredictionsFailed    int
	HistoryRecords       int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
