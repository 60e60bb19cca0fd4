package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/wattcast/pkg/logger"
)

// SetupLogging sends log records to stdout and to logFile. If logFile is
// empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithFormat(io.MultiWriter(os.Stdout, file), "text"); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`wattcast load test
==================

Registers users, submits concurrent predictions and checks that every
user's history holds exactly its successful predictions, in order.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -users int          Number of users to register (default 50)
  -predictions int    Predictions per user (default 20)
  -invalid-every int  Make every Nth reading invalid, 0 disables (default 7)
  -workers int        Concurrent users (default CPU cores * 2)
  -timeout duration   HTTP request timeout (default 30s)
  -seed uint          Reading generator seed (default 1)
  -output string      Write generated requests to this JSON file
  -log string         Log file (default: loadtest_TIMESTAMP.log)
  -verbose            Enable debug logging
  -help               Show this help message
`)
}
