package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/wattcast/internal/loadtest"
)

// Default configuration constants.
const (
	defaultUsers        = 50
	defaultPredictions  = 20
	defaultInvalidEvery = 7
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users        = flag.Int("users", defaultUsers, "Number of users to register")
		predictions  = flag.Int("predictions", defaultPredictions, "Predictions per user")
		invalidEvery = flag.Int("invalid-every", defaultInvalidEvery, "Make every Nth reading invalid (0 disables)")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent users")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed         = flag.Uint64("seed", 1, "Reading generator seed")
		outputFile   = flag.String("output", "", "Output file for generated requests")
		logFile      = flag.String("log", "", "Log file for test output (default: loadtest_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closer, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:        *baseURL,
		Users:          *users,
		PredictionsPer: *predictions,
		InvalidEvery:   *invalidEvery,
		Workers:        *workers,
		Timeout:        *timeout,
		Seed:           *seed,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
