// Package api declares the HTTP surface of the emulator service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/okian/stellaremu/internal/adapters/mq/queue"
	"github.com/okian/stellaremu/internal/adapters/repository"
	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/track"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	IngestTrack(ctx context.Context, t *track.Track) error
	Rebuild(ctx context.Context) (*catalog.Catalog, error)
	Interpolate(ctx context.Context, mass, s float64, target string) (catalog.Estimate, error)
	Predict(ctx context.Context, testAge, logMass float64) (emulator.Prediction, error)
	SyntheticTrack(ctx context.Context, mass float64, points int) (map[string][]float64, error)
	Isochrones(ctx context.Context, logMasses, elapsed []float64) (repository.Run, error)
	Run(ctx context.Context, id string) (repository.Run, error)
}

// Server wires HTTP routes for the emulator API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	tracksHandler    *TracksHandler
	emulateHandler   *EmulateHandler
	isochroneHandler *IsochroneHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		tracksHandler:    NewTracksHandler(deps),
		emulateHandler:   NewEmulateHandler(deps),
		isochroneHandler: NewIsochroneHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /tracks", MetricsMiddleware(s.tracksHandler.HandlePostTrack, "tracks"))
	mux.HandleFunc("POST /rebuild", MetricsMiddleware(s.tracksHandler.HandleRebuild, "rebuild"))
	mux.HandleFunc("GET /track", MetricsMiddleware(s.tracksHandler.HandleSyntheticTrack, "track"))
	mux.HandleFunc("GET /interpolate", MetricsMiddleware(s.emulateHandler.HandleInterpolate, "interpolate"))
	mux.HandleFunc("POST /predict", MetricsMiddleware(s.emulateHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /isochrones", MetricsMiddleware(s.isochroneHandler.HandlePostIsochrones, "isochrones"))
	mux.HandleFunc("GET /isochrones/{id}", MetricsMiddleware(s.isochroneHandler.HandleGetRun, "isochrone_run"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing the status so encoding failures
// surface as 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps upstream error kinds to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusTooManyRequests, "backpressure", errors.Join(ErrBackpressure, err))
	case errors.Is(err, catalog.ErrEmptyCatalog):
		writeError(w, http.StatusServiceUnavailable, "catalog_empty", err)
	case errors.Is(err, emulator.ErrInvalidInput),
		errors.Is(err, emulator.ErrDegenerateAgeWindow),
		errors.Is(err, catalog.ErrMissingTarget),
		errors.Is(err, catalog.ErrDuplicateMass),
		errors.Is(err, catalog.ErrInvalidQuery),
		errors.Is(err, track.ErrMalformedTrack),
		errors.Is(err, track.ErrMissingColumn):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// parseFinite parses a query value that must be a finite number.
func parseFinite(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be finite")
	}
	return f, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
