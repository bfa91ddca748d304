package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/stellaremu/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting stellaremu load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("tracks", config.NumTracks),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate tracks
	tracks, err := generateTracks(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("track generation failed: %w", err)
	}

	// Step 3: Submit tracks concurrently
	if err := submitTracks(ctx, config, tracks, stats); err != nil {
		return stats, fmt.Errorf("track submission failed: %w", err)
	}

	// Step 4: Rebuild the catalog
	if err := rebuildCatalog(ctx, config, stats); err != nil {
		return stats, fmt.Errorf("catalog rebuild failed: %w", err)
	}

	// Step 5: Send queries concurrently
	runIDs, err := fireQueries(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("queries failed: %w", err)
	}

	// Step 6: Verify stored runs
	if err := verifyRuns(ctx, config, runIDs, stats); err != nil {
		return stats, fmt.Errorf("run verification failed: %w", err)
	}

	// Step 7: Save tracks to file
	if config.OutputFile != "" {
		if err := saveTracksToFile(ctx, config.OutputFile, tracks); err != nil {
			logger.Get().Warn(ctx, "failed to save tracks to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveTracksToFile writes the generated tracks as a JSON array.
func saveTracksToFile(ctx context.Context, filename string, tracks []TrackPayload) (err error) {
	if len(tracks) == 0 {
		return errors.New("no tracks to save")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tracks); err != nil {
		return fmt.Errorf("failed to write tracks: %w", err)
	}

	logger.Get().Info(ctx, "tracks saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, requestsPerSecond float64

	total := stats.Predictions + stats.IsochroneRuns
	if total > 0 {
		ok := stats.PredictionsOK + stats.PredictionsRejected + stats.IsochronesOK
		successRate = float64(ok) / float64(total) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.TracksSubmitted+total) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("tracksGenerated", stats.TracksGenerated),
		logger.Int("tracksAccepted", stats.TracksAccepted),
		logger.Int("tracksFailed", stats.TracksFailed),
		logger.Int("catalogTracks", stats.CatalogTracks),
		logger.Int("predictionsOK", stats.PredictionsOK),
		logger.Int("predictionsRejected", stats.PredictionsRejected),
		logger.Int("isochronesOK", stats.IsochronesOK),
		logger.Int("isochronesThrottled", stats.IsochronesThrottled),
		logger.Int("rowsVerified", stats.RowsVerified),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
