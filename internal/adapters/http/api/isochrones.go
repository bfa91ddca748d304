package api

import (
	"errors"
	"net/http"
)

// IsochroneHandler handles isochrone runs.
type IsochroneHandler struct {
	deps Dependencies
}

// NewIsochroneHandler creates a new isochrone handler.
func NewIsochroneHandler(deps Dependencies) *IsochroneHandler {
	return &IsochroneHandler{deps: deps}
}

type isochroneRequest struct {
	LogMasses []float64 `json:"log_masses"`
	Elapsed   []float64 `json:"elapsed"`
}

func (i isochroneRequest) validate() error {
	switch {
	case len(i.LogMasses) == 0:
		return errors.New("missing log_masses")
	case len(i.Elapsed) == 0:
		return errors.New("missing elapsed")
	}
	return nil
}

// HandlePostIsochrones handles POST /isochrones. The run is computed
// synchronously on the worker pool and stored.
func (h *IsochroneHandler) HandlePostIsochrones(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_isochrones"
	var req isochroneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}
	run, err := h.deps.Isochrones(r.Context(), req.LogMasses, req.Elapsed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/isochrones/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

// HandleGetRun handles GET /isochrones/{id}.
func (h *IsochroneHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.deps.Run(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
