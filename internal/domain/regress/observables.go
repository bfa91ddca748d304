package regress

import (
	"fmt"
	"math"

	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/track"
)

// ObservableTargets are the catalog columns answered by CatalogObservables,
// in output order.
var ObservableTargets = []string{track.ColLogL, track.ColLogTeff, track.ColLogG} //nolint:gochecknoglobals // read-only

// CatalogObservables answers [s, log M] -> [log L, log Teff, log g] by
// interpolating the catalog directly.
type CatalogObservables struct {
	Catalog *catalog.Catalog
}

// Predict implements emulator.Predictor.
func (o CatalogObservables) Predict(in []float64) ([]float64, error) {
	if len(in) != 2 {
		return nil, fmt.Errorf("observables got %d inputs, want 2: %w", len(in), ErrDimension)
	}
	return o.Catalog.InterpolateAll(math.Pow(10, in[1]), in[0], ObservableTargets...)
}
