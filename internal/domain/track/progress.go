package track

import (
	"fmt"
	"math"
)

// ProgressCoordinate returns the cumulative path length sTilde through
// (L, Teff, proxy) space and its normalisation s to [0, 1]. Each step uses
// the absolute per-component differences between consecutive rows.
func ProgressCoordinate(l, teff, proxy []float64) (sTilde, s []float64, err error) {
	n := len(l)
	if n == 0 {
		return nil, nil, fmt.Errorf("progress coordinate of empty track: %w", ErrMalformedTrack)
	}
	if len(teff) != n || len(proxy) != n {
		return nil, nil, fmt.Errorf("progress coordinate inputs have lengths %d/%d/%d: %w", n, len(teff), len(proxy), ErrMalformedTrack)
	}

	sTilde = make([]float64, n)
	for i := 1; i < n; i++ {
		dl := math.Abs(l[i] - l[i-1])
		dt := math.Abs(teff[i] - teff[i-1])
		dp := math.Abs(proxy[i] - proxy[i-1])
		sTilde[i] = sTilde[i-1] + math.Sqrt(dl*dl+dt*dt+dp*dp)
	}

	total := sTilde[n-1]
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, nil, fmt.Errorf("track arc length is %g: %w", total, ErrMalformedTrack)
	}

	s = make([]float64, n)
	for i, v := range sTilde {
		s[i] = v / total
	}
	return sTilde, s, nil
}

// WithProgress returns a copy of t with s_tilde and s columns appended.
func (t *Track) WithProgress(lCol, teffCol, proxyCol string) (*Track, error) {
	l, err := t.Column(lCol)
	if err != nil {
		return nil, err
	}
	teff, err := t.Column(teffCol)
	if err != nil {
		return nil, err
	}
	proxy, err := t.Column(proxyCol)
	if err != nil {
		return nil, err
	}

	sTilde, s, err := ProgressCoordinate(l, teff, proxy)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", t.Name, err)
	}
	out, err := t.With(ColSTilde, sTilde)
	if err != nil {
		return nil, err
	}
	return out.With(ColS, s)
}
