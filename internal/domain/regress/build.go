package regress

import (
	"fmt"
	"math"

	"github.com/okian/stellaremu/internal/domain/catalog"
	"github.com/okian/stellaremu/internal/domain/emulator"
	"github.com/okian/stellaremu/internal/domain/track"
)

// Default reference model settings.
const (
	DefaultNeighbors      = 4
	DefaultBoundaryDegree = 3
)

// Options tune BuildModels.
type Options struct {
	Neighbors      int
	BoundaryDegree int
}

// Bundle is a catalog together with the predictors derived from it.
type Bundle struct {
	Catalog *catalog.Catalog
	Models  emulator.Models
}

// BuildModels derives the four pipeline predictors from prepared tracks
// (tracks carrying the s column):
//
//   - boundary ages: polynomial in log M through each track's first and last age
//   - progress: kNN over (t_scaled, log M) -> s for every track row
//   - observables: HNNI over the catalog
func BuildModels(tracks []*track.Track, opts Options) (*Bundle, error) {
	if opts.Neighbors < 1 {
		opts.Neighbors = DefaultNeighbors
	}
	if opts.BoundaryDegree <= 0 {
		opts.BoundaryDegree = DefaultBoundaryDegree
	}

	if len(tracks) == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	cat, err := catalog.FromTracks(tracks, ObservableTargets...)
	if err != nil {
		return nil, err
	}

	var (
		logMass, logStart, logEnd []float64
		X                         [][]float64
		y                         []float64
	)
	for _, t := range tracks {
		age, err := t.Column(track.ColAge)
		if err != nil {
			return nil, err
		}
		s, err := t.Column(track.ColS)
		if err != nil {
			return nil, err
		}
		n := len(age)
		if n == 0 || !(age[0] > 0) {
			return nil, fmt.Errorf("track %q starts at age %v: %w", t.Name, age, track.ErrMalformedTrack)
		}
		lm := math.Log10(t.InitialMass)
		lz, le := math.Log10(age[0]), math.Log10(age[n-1])
		logMass = append(logMass, lm)
		logStart = append(logStart, lz)
		logEnd = append(logEnd, le)

		for i := range age {
			tScaled, err := emulator.ScaleAge(lz, le, math.Log10(age[i]))
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", t.Name, err)
			}
			X = append(X, []float64{tScaled, lm})
			y = append(y, s[i])
		}
	}

	degree := min(opts.BoundaryDegree, len(tracks)-1)
	start, err := FitPolynomial(degree, logMass, logStart)
	if err != nil {
		return nil, fmt.Errorf("age start model: %w", err)
	}
	end, err := FitPolynomial(degree, logMass, logEnd)
	if err != nil {
		return nil, fmt.Errorf("age end model: %w", err)
	}
	progress, err := NewKNN(opts.Neighbors, X, y)
	if err != nil {
		return nil, fmt.Errorf("progress model: %w", err)
	}

	return &Bundle{
		Catalog: cat,
		Models: emulator.Models{
			AgeStart:    start,
			AgeEnd:      end,
			Progress:    progress,
			Observables: CatalogObservables{Catalog: cat},
		},
	}, nil
}
