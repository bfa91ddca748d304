// Package grid finds bracketing grid points and performs the linear
// interpolation step shared by every interpolator in the emulator.
package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Bracket is the tightest pair of grid values around a query.
type Bracket struct {
	Lower float64
	Upper float64
	// Clamped reports that the query fell outside [min, max] and was
	// replaced by the nearest boundary value.
	Clamped bool
}

// Degenerate reports whether both ends of the bracket coincide.
func (b Bracket) Degenerate() bool {
	return b.Lower == b.Upper
}

// Neighbors returns lower = max{v <= q} and upper = min{v >= q}.
// When no value lies below q the lower end is min(values); when none lies
// above, the upper end is max(values). Values need not be sorted.
func Neighbors(values []float64, q float64) (Bracket, error) {
	if len(values) == 0 {
		return Bracket{}, fmt.Errorf("neighbors of %g: %w", q, ErrEmptyGrid)
	}

	var (
		lower, upper       float64
		hasLower, hasUpper bool
	)
	for _, v := range values {
		if v <= q && (!hasLower || v > lower) {
			lower, hasLower = v, true
		}
		if v >= q && (!hasUpper || v < upper) {
			upper, hasUpper = v, true
		}
	}

	b := Bracket{Lower: lower, Upper: upper}
	if !hasLower {
		b.Lower = floats.Min(values)
		b.Clamped = true
	}
	if !hasUpper {
		b.Upper = floats.Max(values)
		b.Clamped = true
	}
	return b, nil
}

// Linear evaluates the straight line through (x1, y1) and (x2, y2) at x.
// Callers must not pass x1 == x2.
func Linear(x1, x2, y1, y2, x float64) float64 {
	return y1 + (y2-y1)/(x2-x1)*(x-x1)
}

// IndexOf returns the first index whose value equals v exactly, or -1.
func IndexOf(values []float64, v float64) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
