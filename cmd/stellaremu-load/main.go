package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/stellaremu/internal/loadtest"
)

// Default configuration constants.
const (
	defaultTracks      = 12
	defaultMinMass     = 0.8
	defaultMaxMass     = 20
	defaultRows        = 60
	defaultRequests    = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		tracks     = flag.Int("tracks", defaultTracks, "Number of synthetic tracks to ingest")
		minMass    = flag.Float64("min-mass", defaultMinMass, "Smallest initial mass in solar masses")
		maxMass    = flag.Float64("max-mass", defaultMaxMass, "Largest initial mass in solar masses")
		rows       = flag.Int("rows", defaultRows, "Rows per synthetic track")
		requests   = flag.Int("requests", defaultRequests, "Number of predict and isochrone requests")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the generated tracks to this JSON file")
		logFile    = flag.String("log", "", "Log file (default: loadtest_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every rejected request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closer, err := loadtest.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:    *baseURL,
		NumTracks:  *tracks,
		MinMass:    *minMass,
		MaxMass:    *maxMass,
		Rows:       *rows,
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		cancel()
		closer.Close()
		os.Exit(1)
	}
}
