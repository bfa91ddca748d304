package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/stellaremu/internal/domain/track"
)

// EmulateHandler handles catalog interpolation and pipeline predictions.
type EmulateHandler struct {
	deps Dependencies
}

// NewEmulateHandler creates a new emulate handler.
func NewEmulateHandler(deps Dependencies) *EmulateHandler {
	return &EmulateHandler{deps: deps}
}

type interpolateResponse struct {
	Mass      float64 `json:"mass"`
	S         float64 `json:"s"`
	Target    string  `json:"target"`
	Value     float64 `json:"value"`
	MassLower float64 `json:"mass_lower"`
	MassUpper float64 `json:"mass_upper"`
	Clamped   bool    `json:"clamped"`
}

// HandleInterpolate handles GET /interpolate?mass=&s=&target=. The target
// defaults to log_L.
func (h *EmulateHandler) HandleInterpolate(w http.ResponseWriter, r *http.Request) {
	const op = "api.interpolate"
	q := r.URL.Query()
	mass, err := parseFinite(q.Get("mass"))
	if err != nil {
		writeDomainError(w, badRequest(op, fmt.Errorf("mass: %w", err)))
		return
	}
	s, err := parseFinite(q.Get("s"))
	if err != nil {
		writeDomainError(w, badRequest(op, fmt.Errorf("s: %w", err)))
		return
	}
	target := q.Get("target")
	if target == "" {
		target = track.ColLogL
	}

	est, err := h.deps.Interpolate(r.Context(), mass, s, target)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interpolateResponse{
		Mass:      mass,
		S:         s,
		Target:    target,
		Value:     est.Value,
		MassLower: est.Mass.Lower,
		MassUpper: est.Mass.Upper,
		Clamped:   est.Clamped,
	})
}

type predictRequest struct {
	TestAge float64 `json:"test_age"`
	LogMass float64 `json:"log_mass"`
}

// HandlePredict handles POST /predict.
func (h *EmulateHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, badRequest(op, err))
		return
	}
	if !(req.TestAge > 0) {
		writeDomainError(w, badRequest(op, errors.New("test_age must be positive")))
		return
	}
	pred, err := h.deps.Predict(r.Context(), req.TestAge, req.LogMass)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}
