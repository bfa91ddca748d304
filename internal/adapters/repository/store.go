// Package repository persists evolutionary tracks and isochrone runs.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/track"
)

// Run is one persisted isochrone computation.
type Run struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	LogMasses []float64              `json:"log_masses"`
	Elapsed   []float64              `json:"elapsed"`
	Result    *emulator.IsochroneSet `json:"result"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store provides read/write access to tracks and runs.
type Store interface {
	// Init prepares the backend. It must be called before any other method.
	Init(ctx context.Context) error

	// SaveTrack inserts or replaces a track keyed by its name.
	SaveTrack(ctx context.Context, t *track.Track) error
	// GetTrack returns ErrNotFound for unknown names.
	GetTrack(ctx context.Context, name string) (*track.Track, error)
	// ListTracks returns all tracks ordered by initial mass, then name.
	ListTracks(ctx context.Context) ([]*track.Track, error)

	SaveRun(ctx context.Context, run Run) error
	// GetRun returns ErrNotFound for unknown ids.
	GetRun(ctx context.Context, id string) (Run, error)
}
