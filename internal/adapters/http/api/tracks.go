package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/stellaremu/internal/domain/track"
)

// TracksHandler handles track ingest, catalog rebuilds and synthetic tracks.
type TracksHandler struct {
	deps Dependencies
}

// NewTracksHandler creates a new tracks handler.
func NewTracksHandler(deps Dependencies) *TracksHandler {
	return &TracksHandler{deps: deps}
}

// trackRequest is the body of POST /tracks: named columns of equal length.
type trackRequest struct {
	Name        string               `json:"name"`
	InitialMass float64              `json:"initial_mass"`
	Columns     map[string][]float64 `json:"columns"`
}

func (t trackRequest) validate() error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return errors.New("missing name")
	case !(t.InitialMass > 0):
		return errors.New("initial_mass must be positive")
	case len(t.Columns) == 0:
		return errors.New("missing columns")
	}
	for _, c := range track.BasicColumns {
		if _, ok := t.Columns[c]; !ok {
			return errors.New("missing column " + c)
		}
	}
	return nil
}

type trackAck struct {
	Name    string    `json:"name"`
	Rows    int       `json:"rows"`
	Rebuilt bool      `json:"rebuilt"`
	Masses  []float64 `json:"masses,omitempty"`
}

// HandlePostTrack handles POST /tracks. With ?rebuild=true the catalog is
// rebuilt after the track is stored.
func (h *TracksHandler) HandlePostTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_track"
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}
	t, err := track.New(req.Name, req.InitialMass, req.Columns)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.IngestTrack(r.Context(), t); err != nil {
		writeDomainError(w, err)
		return
	}

	ack := trackAck{Name: t.Name, Rows: t.Len()}
	if rebuild, _ := strconv.ParseBool(r.URL.Query().Get("rebuild")); rebuild {
		cat, err := h.deps.Rebuild(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ack.Rebuilt = true
		ack.Masses = cat.Masses()
	}
	writeJSON(w, http.StatusCreated, ack)
}

type rebuildResponse struct {
	Tracks int       `json:"tracks"`
	Masses []float64 `json:"masses"`
}

// HandleRebuild handles POST /rebuild.
func (h *TracksHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	cat, err := h.deps.Rebuild(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rebuildResponse{Tracks: cat.Len(), Masses: cat.Masses()})
}

// HandleSyntheticTrack handles GET /track?mass=&points=.
func (h *TracksHandler) HandleSyntheticTrack(w http.ResponseWriter, r *http.Request) {
	const op = "api.synthetic_track"
	q := r.URL.Query()
	mass, err := parseFinite(q.Get("mass"))
	if err != nil {
		writeDomainError(w, badRequest(op, fmt.Errorf("mass: %w", err)))
		return
	}
	points := 0
	if p := q.Get("points"); p != "" {
		if points, err = strconv.Atoi(p); err != nil || points < 2 {
			writeDomainError(w, badRequest(op, errors.New("points must be an integer >= 2")))
			return
		}
	}
	out, err := h.deps.SyntheticTrack(r.Context(), mass, points)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mass": mass, "columns": out})
}
