package service

import (
	"github.com/okian/stellaremu/internal/adapters/repository"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/regress"
	"github.com/okian/stellaremu/internal/domain/track"
	"github.com/okian/stellaremu/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of cell workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the cell queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the track and run repository.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPolicy sets the phase policy applied to tracks before cataloguing.
func WithPolicy(p track.PhasePolicy) Option {
	return func(s *Service) {
		if len(p.Allowed) > 0 {
			s.policy = p
		}
	}
}

// WithBuildOptions tunes the reference models derived on Rebuild.
func WithBuildOptions(o regress.Options) Option {
	return func(s *Service) {
		s.buildOpts = o
	}
}

// WithModels replaces the reference models with externally supplied
// predictors. The catalog is still built from stored tracks.
func WithModels(m emulator.Models) Option {
	return func(s *Service) {
		if m.Validate() == nil {
			s.models = &m
		}
	}
}

// WithTrackSamplePoints sets the default s-grid size for synthetic tracks.
func WithTrackSamplePoints(n int) Option {
	return func(s *Service) {
		if n >= 2 {
			s.samplePoints = n
		}
	}
}
