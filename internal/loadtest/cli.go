package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/stellaremu/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends JSON logs to both stdout and a file. If logFile is
// empty, a timestamped filename is generated. The returned closer releases
// the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWith(io.MultiWriter(os.Stdout, file), "json"); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return file, nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	os.Stdout.WriteString(`stellaremu load test
====================

Ingests synthetic tracks into a running emulator service, rebuilds its
catalog, then issues concurrent predictions and isochrone runs and checks
the stored results.

Usage:
  go run ./cmd/stellaremu-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -tracks int
        Number of synthetic tracks to ingest (default 12)
  -min-mass float
        Smallest initial mass in solar masses (default 0.8)
  -max-mass float
        Largest initial mass in solar masses (default 20)
  -rows int
        Rows per synthetic track (default 60)
  -requests int
        Number of predict and isochrone requests (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the generated tracks to this JSON file
  -log string
        Log file (default: loadtest_TIMESTAMP.log)
  -verbose
        Log every rejected request
  -help
        Show this help message
`)
}
