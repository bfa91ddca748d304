// Package config defines service configuration and its loading hooks.
package config

import (
	"fmt"
	"runtime"
	"slices"
)

// Store backends understood by the repository factory.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of isochrone cell workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory cell queue.
	QueueSize int `koanf:"queue_size"`

	// StoreBackend is either "memory" or "sqlite".
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// Phases lists the evolutionary phase codes kept when preparing tracks.
	Phases []int `koanf:"phases"`

	// HeliumThreshold is the core helium fraction at or below which
	// massive-star rows are trimmed.
	HeliumThreshold float64 `koanf:"helium_threshold"`

	// KNNNeighbors is k for the progress regressor.
	KNNNeighbors int `koanf:"knn_neighbors"`

	// BoundaryDegree is the polynomial degree of the ZAMS/TACHeB age models.
	BoundaryDegree int `koanf:"boundary_degree"`

	// TrackSamplePoints is the default s-grid size for synthetic tracks.
	TrackSamplePoints int `koanf:"track_sample_points"`
}

// DefaultPhases are the phase codes kept by default: MS, RGB, CHeB, WR.
func DefaultPhases() []int { return []int{0, 2, 3, 9} }

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         10_000,
		StoreBackend:      BackendMemory,
		SQLitePath:        "stellaremu.db",
		Phases:            DefaultPhases(),
		HeliumThreshold:   1e-4,
		KNNNeighbors:      4,
		BoundaryDegree:    3,
		TrackSamplePoints: 200,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case !slices.Contains([]string{BackendMemory, BackendSQLite}, c.StoreBackend):
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	case c.StoreBackend == BackendSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path required for sqlite backend", ErrInvalidConfig)
	case len(c.Phases) == 0:
		return fmt.Errorf("%w: phases must not be empty", ErrInvalidConfig)
	case c.HeliumThreshold < 0:
		return fmt.Errorf("%w: helium_threshold must not be negative", ErrInvalidConfig)
	case c.KNNNeighbors <= 0:
		return fmt.Errorf("%w: knn_neighbors must be positive, got %d", ErrInvalidConfig, c.KNNNeighbors)
	case c.BoundaryDegree < 0:
		return fmt.Errorf("%w: boundary_degree must not be negative", ErrInvalidConfig)
	case c.TrackSamplePoints < 2:
		return fmt.Errorf("%w: track_sample_points must be at least 2", ErrInvalidConfig)
	}
	return nil
}
