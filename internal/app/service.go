// Package service wires the emulator domain to storage, the worker pool and
// the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/stellaremu/internal/adapters/mq/queue"
	"github.com/okian/stellaremu/internal/adapters/mq/worker"
	"github.com/okian/stellaremu/internal/adapters/repository"
	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/regress"
	"github.com/okian/stellaremu/internal/domain/track"
	"github.com/okian/stellaremu/pkg/logger"
	"github.com/okian/stellaremu/pkg/metrics"
)

const (
	defaultQueueSize    = 10_000
	defaultSamplePoints = 200
)

// Service implements the API dependencies for the emulator.
type Service struct {
	mu sync.RWMutex

	// Components
	store      repository.Store
	cellQueue  *queue.InMemoryQueue
	workerPool *worker.Pool
	dispatcher *worker.Dispatcher

	// Configuration
	workerCount  int
	queueSize    int
	samplePoints int
	policy       track.PhasePolicy
	buildOpts    regress.Options
	models       *emulator.Models

	// Built by Rebuild
	catalog  *catalog.Catalog
	pipeline *emulator.Pipeline
	index    catalog.MassIndex
	built    time.Time

	started bool
	logger  logger.Logger
}

var _ emulator.CellEvaluator = (*Service)(nil)

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		samplePoints: defaultSamplePoints,
		policy:       track.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the store, starts the worker pool and builds the
// catalog from any stored tracks.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if err := s.store.Init(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("init store: %w", err)
	}

	s.cellQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.cellQueue, s)
	s.workerPool.Start(context.WithoutCancel(ctx))
	s.dispatcher = worker.NewDispatcher(s.cellQueue)
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "emulator service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	if _, err := s.Rebuild(ctx); err != nil {
		if errors.Is(err, catalog.ErrEmptyCatalog) {
			s.logger.Info(ctx, "no stored tracks; catalog will be built after ingest")
			return nil
		}
		s.logger.Warn(ctx, "initial rebuild failed", logger.Error(err))
	}
	return nil
}

// Stop drains the worker pool and releases the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, store := s.workerPool, s.store
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping emulator service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	if err := repository.CloseIfSupported(store); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.logger.Info(ctx, "emulator service stopped")
}

// IngestTrack validates and stores a raw track. Call Rebuild to fold it
// into the catalog.
func (s *Service) IngestTrack(ctx context.Context, t *track.Track) error {
	if err := s.ready(); err != nil {
		return err
	}
	if t == nil || t.Name == "" || !(t.InitialMass > 0) {
		return fmt.Errorf("%w: name and positive initial mass required", ErrBadTrack)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadTrack, err)
	}
	stored, err := s.store.ListTracks(ctx)
	if err != nil {
		return err
	}
	for _, o := range stored {
		if o.InitialMass == t.InitialMass && o.Name != t.Name {
			return fmt.Errorf("%w: mass %g already stored as %s: %w", ErrBadTrack, t.InitialMass, o.Name, catalog.ErrDuplicateMass)
		}
	}
	if err := s.store.SaveTrack(ctx, t); err != nil {
		return err
	}
	s.logger.Debug(ctx, "track stored",
		logger.String("name", t.Name),
		logger.Float64("mass", t.InitialMass),
		logger.Int("rows", t.Len()),
	)
	return nil
}

// Rebuild prepares every stored track, rebuilds the catalog and derives the
// pipeline models. The previous catalog stays active if anything fails.
func (s *Service) Rebuild(ctx context.Context) (cat *catalog.Catalog, err error) {
	defer func() { metrics.RecordCatalogRebuild(err) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	raw, err := s.store.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, catalog.ErrEmptyCatalog
	}

	prepared := make([]*track.Track, 0, len(raw))
	index := make(catalog.MassIndex, len(raw))
	for _, t := range raw {
		p, err := track.Prepare(t, s.policy)
		if err != nil {
			return nil, fmt.Errorf("prepare %s: %w", t.Name, err)
		}
		prepared = append(prepared, p)
		index[t.InitialMass] = t.Name
	}

	bundle, err := regress.BuildModels(prepared, s.buildOpts)
	if err != nil {
		return nil, err
	}
	models := bundle.Models
	if s.models != nil {
		models = *s.models
	}
	pipeline, err := emulator.NewPipeline(models)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.catalog = bundle.Catalog
	s.pipeline = pipeline
	s.index = index
	s.built = now
	s.mu.Unlock()

	metrics.UpdateCatalogTracks(bundle.Catalog.Len())
	s.logger.Info(ctx, "catalog rebuilt", logger.Int("tracks", bundle.Catalog.Len()))
	return bundle.Catalog, nil
}

// Interpolate evaluates target at (mass, s) on the catalog.
func (s *Service) Interpolate(ctx context.Context, mass, sCoord float64, target string) (catalog.Estimate, error) {
	cat, _, err := s.snapshot()
	if err != nil {
		return catalog.Estimate{}, err
	}
	est, err := cat.InterpolateDetailed(mass, sCoord, target)
	if err != nil {
		return catalog.Estimate{}, err
	}
	metrics.RecordInterpolation(target)
	if est.Clamped {
		s.warnClamped(ctx, mass, sCoord, est)
	}
	return est, nil
}

func (s *Service) warnClamped(ctx context.Context, mass, sCoord float64, est catalog.Estimate) {
	axis := "s"
	if est.Mass.Clamped {
		axis = "mass"
	}
	metrics.RecordClampedLookup(axis)
	s.logger.Warn(ctx, "query outside catalog grid; evaluated at boundary",
		logger.String("axis", axis),
		logger.Float64("mass", mass),
		logger.Float64("s", sCoord),
		logger.Float64("lower", est.Mass.Lower),
		logger.Float64("upper", est.Mass.Upper),
	)
}

// Predict runs the emulator pipeline for one star.
func (s *Service) Predict(ctx context.Context, testAge, logMass float64) (emulator.Prediction, error) {
	_, p, err := s.snapshot()
	if err != nil {
		return emulator.Prediction{}, err
	}
	start := time.Now()
	pred, err := p.Predict(ctx, testAge, logMass)
	if err != nil {
		if errors.Is(err, emulator.ErrModelInference) || errors.Is(err, emulator.ErrShape) {
			metrics.RecordInferenceError("predict")
		}
		return emulator.Prediction{}, err
	}
	metrics.RecordPrediction(float64(time.Since(start).Microseconds()) / 1000)
	return pred, nil
}

// SyntheticTrack samples the observables of a track at arbitrary mass over
// an evenly spaced s grid on [0, 1].
func (s *Service) SyntheticTrack(ctx context.Context, mass float64, points int) (map[string][]float64, error) {
	cat, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if points < 2 {
		points = s.samplePoints
	}
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("mass %g: %w", mass, emulator.ErrInvalidInput)
	}
	sGrid := floats.Span(make([]float64, points), 0, 1)
	out, err := cat.Sample(mass, sGrid, regress.ObservableTargets...)
	if err != nil {
		return nil, err
	}
	out[track.ColS] = sGrid
	s.logger.Debug(ctx, "synthetic track sampled", logger.Float64("mass", mass), logger.Int("points", points))
	return out, nil
}

// Isochrones computes isochrones on the worker pool and persists the run.
func (s *Service) Isochrones(ctx context.Context, logMasses, elapsed []float64) (repository.Run, error) {
	_, p, err := s.snapshot()
	if err != nil {
		return repository.Run{}, err
	}
	s.mu.RLock()
	dispatcher := s.dispatcher
	s.mu.RUnlock()

	start := time.Now()
	set, err := emulator.NewIsochrones(p, emulator.WithRunner(dispatcher)).Compute(ctx, logMasses, elapsed)
	if err != nil {
		if errors.Is(err, emulator.ErrModelInference) || errors.Is(err, emulator.ErrShape) {
			metrics.RecordInferenceError("isochrone")
		}
		return repository.Run{}, err
	}
	metrics.RecordIsochroneRun(float64(time.Since(start).Microseconds()) / 1000)

	run := repository.Run{
		ID:        repository.NewRunID(),
		CreatedAt: time.Now().UTC(),
		LogMasses: append([]float64(nil), logMasses...),
		Elapsed:   append([]float64(nil), elapsed...),
		Result:    set,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return repository.Run{}, fmt.Errorf("save run: %w", err)
	}
	s.logger.Info(ctx, "isochrones computed",
		logger.String("run", run.ID),
		logger.Int("rows", len(set.Rows)),
		logger.Int("skipped", set.Skipped),
	)
	return run, nil
}

// Run returns a stored isochrone run.
func (s *Service) Run(ctx context.Context, id string) (repository.Run, error) {
	if err := s.ready(); err != nil {
		return repository.Run{}, err
	}
	return s.store.GetRun(ctx, id)
}

// EvaluateCell evaluates one isochrone cell on the active pipeline. The
// worker pool calls it, including while draining after Stop.
func (s *Service) EvaluateCell(ctx context.Context, c emulator.Cell) emulator.CellResult {
	s.mu.RLock()
	p := s.pipeline
	s.mu.RUnlock()
	if p == nil {
		return emulator.CellResult{Cell: c, Err: catalog.ErrEmptyCatalog}
	}
	return p.EvaluateCell(ctx, c)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"phases":      s.policy.Allowed,
		"phaseLabels": phaseLabels(s.policy.Allowed),
	}
	if s.started {
		queueLen := s.cellQueue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	if s.catalog != nil {
		stats["tracks"] = s.catalog.Len()
		stats["masses"] = s.index.Masses()
		stats["builtAt"] = s.built
	}
	return stats
}

func phaseLabels(codes []int) map[int]string {
	out := make(map[int]string, len(codes))
	for _, c := range codes {
		if l, ok := track.PhaseLabel(c); ok {
			out[c] = l
		}
	}
	return out
}

// TrackName returns the stored track name for an exact catalog mass.
func (s *Service) TrackName(mass float64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Lookup(mass)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) snapshot() (*catalog.Catalog, *emulator.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	if s.catalog == nil || s.pipeline == nil {
		return nil, nil, catalog.ErrEmptyCatalog
	}
	return s.catalog, s.pipeline, nil
}
