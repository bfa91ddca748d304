package catalog

import (
	"fmt"
	"math"

	"github.com/okian/stellaremu/internal/domain/grid"
)

// Estimate is an interpolated value together with the grid points used.
type Estimate struct {
	Value float64
	Mass  grid.Bracket
	// Clamped is set when the mass or progress query was outside the grid
	// and evaluated at the boundary instead.
	Clamped bool
}

// Interpolate returns target at (mass, s). See InterpolateDetailed.
func (c *Catalog) Interpolate(mass, s float64, target string) (float64, error) {
	est, err := c.InterpolateDetailed(mass, s, target)
	if err != nil {
		return math.NaN(), err
	}
	return est.Value, nil
}

// InterpolateDetailed interpolates target linearly in s on each of the two
// tracks bracketing mass, then linearly in log10(mass) between them. When
// the mass bracket collapses to one track only the s step is performed.
func (c *Catalog) InterpolateDetailed(mass, s float64, target string) (Estimate, error) {
	if len(c.masses) == 0 {
		return Estimate{}, ErrEmptyCatalog
	}
	if !finite(mass) || !finite(s) {
		return Estimate{}, fmt.Errorf("%w: mass %g, s %g", ErrInvalidQuery, mass, s)
	}
	mb, err := grid.Neighbors(c.masses, mass)
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: %w", ErrEmptyCatalog, err)
	}

	lo, clampedLo, err := c.alongTrack(mb.Lower, s, target)
	if err != nil {
		return Estimate{}, err
	}
	est := Estimate{Value: lo, Mass: mb, Clamped: mb.Clamped || clampedLo}
	if mb.Degenerate() {
		return est, nil
	}

	hi, clampedHi, err := c.alongTrack(mb.Upper, s, target)
	if err != nil {
		return Estimate{}, err
	}
	est.Value = grid.Linear(math.Log10(mb.Lower), math.Log10(mb.Upper), lo, hi, math.Log10(mass))
	est.Clamped = est.Clamped || clampedHi
	return est, nil
}

// alongTrack interpolates target in s on the track of an exact catalog mass.
// Rows are located by exact value; with duplicate s values the first row wins.
func (c *Catalog) alongTrack(mass, s float64, target string) (float64, bool, error) {
	e := c.entries[mass]
	values, ok := e.Targets[target]
	if !ok {
		return 0, false, fmt.Errorf("mass %g target %q: %w", mass, target, ErrMissingTarget)
	}

	sb, err := grid.Neighbors(e.S, s)
	if err != nil {
		return 0, false, err
	}
	iLo := grid.IndexOf(e.S, sb.Lower)
	if sb.Degenerate() {
		return values[iLo], sb.Clamped, nil
	}
	iHi := grid.IndexOf(e.S, sb.Upper)
	return grid.Linear(sb.Lower, sb.Upper, values[iLo], values[iHi], s), sb.Clamped, nil
}

// InterpolateAll interpolates several targets at the same point.
func (c *Catalog) InterpolateAll(mass, s float64, targets ...string) ([]float64, error) {
	out := make([]float64, len(targets))
	for i, name := range targets {
		v, err := c.Interpolate(mass, s, name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Sample evaluates a synthetic track at mass over sGrid. The result holds
// one slice per target, aligned with sGrid.
func (c *Catalog) Sample(mass float64, sGrid []float64, targets ...string) (map[string][]float64, error) {
	out := make(map[string][]float64, len(targets))
	for _, name := range targets {
		out[name] = make([]float64, len(sGrid))
	}
	for i, s := range sGrid {
		for _, name := range targets {
			v, err := c.Interpolate(mass, s, name)
			if err != nil {
				return nil, err
			}
			out[name][i] = v
		}
	}
	return out, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
