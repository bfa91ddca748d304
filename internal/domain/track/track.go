// Package track models one evolutionary sequence as a fixed-schema,
// column-oriented table and implements the per-track processing steps:
// phase selection and the progress coordinate.
package track

import (
	"fmt"
	"slices"
)

// Standard column names.
const (
	ColLogL       = "log_L"
	ColLogTeff    = "log_Teff"
	ColAge        = "star_age"
	ColPhase      = "phase"
	ColLogRho     = "log_center_Rho"
	ColCenterHe4  = "center_he4"
	ColLogCenterT = "log_center_T"
	ColLogG       = "log_g"
	ColSTilde     = "s_tilde"
	ColS          = "s"
)

// BasicColumns lists the columns a track source must supply.
var BasicColumns = []string{ //nolint:gochecknoglobals // read-only schema
	ColLogL, ColLogTeff, ColAge, ColPhase, ColLogRho, ColCenterHe4, ColLogCenterT, ColLogG,
}

// Track is one evolutionary sequence belonging to a single initial mass.
// Tracks are treated as immutable: every transformation returns a new Track.
type Track struct {
	Name        string               `json:"name"`
	InitialMass float64              `json:"initial_mass"`
	Columns     []string             `json:"columns"`
	Data        map[string][]float64 `json:"data"`
}

// New builds a Track and checks that all columns are row-aligned.
func New(name string, initialMass float64, data map[string][]float64) (*Track, error) {
	cols := make([]string, 0, len(data))
	for c := range data {
		cols = append(cols, c)
	}
	slices.Sort(cols)

	t := &Track{Name: name, InitialMass: initialMass, Columns: cols, Data: make(map[string][]float64, len(data))}
	for _, c := range cols {
		t.Data[c] = slices.Clone(data[c])
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the column layout.
func (t *Track) Validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("track %q has no columns: %w", t.Name, ErrMalformedTrack)
	}
	n := -1
	for _, c := range t.Columns {
		col, ok := t.Data[c]
		if !ok {
			return fmt.Errorf("track %q column %q: %w", t.Name, c, ErrMissingColumn)
		}
		if n >= 0 && len(col) != n {
			return fmt.Errorf("track %q column %q has %d rows, want %d: %w", t.Name, c, len(col), n, ErrMalformedTrack)
		}
		n = len(col)
	}
	return nil
}

// Len returns the number of rows.
func (t *Track) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Data[t.Columns[0]])
}

// Has reports whether the column exists.
func (t *Track) Has(name string) bool {
	_, ok := t.Data[name]
	return ok
}

// Column returns the named column. The slice must not be modified.
func (t *Track) Column(name string) ([]float64, error) {
	col, ok := t.Data[name]
	if !ok {
		return nil, fmt.Errorf("track %q column %q: %w", t.Name, name, ErrMissingColumn)
	}
	return col, nil
}

// Row returns the i-th row keyed by column name.
func (t *Track) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.Columns))
	for _, c := range t.Columns {
		row[c] = t.Data[c][i]
	}
	return row
}

// Select returns a new Track with the rows for which keep returns true.
func (t *Track) Select(keep func(i int) bool) *Track {
	out := &Track{
		Name:        t.Name,
		InitialMass: t.InitialMass,
		Columns:     slices.Clone(t.Columns),
		Data:        make(map[string][]float64, len(t.Columns)),
	}
	idx := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	for _, c := range t.Columns {
		src := t.Data[c]
		dst := make([]float64, len(idx))
		for j, i := range idx {
			dst[j] = src[i]
		}
		out.Data[c] = dst
	}
	return out
}

// With returns a new Track with an added or replaced column.
func (t *Track) With(name string, values []float64) (*Track, error) {
	if len(t.Columns) > 0 && len(values) != t.Len() {
		return nil, fmt.Errorf("track %q column %q has %d rows, want %d: %w", t.Name, name, len(values), t.Len(), ErrMalformedTrack)
	}
	out := &Track{
		Name:        t.Name,
		InitialMass: t.InitialMass,
		Columns:     slices.Clone(t.Columns),
		Data:        make(map[string][]float64, len(t.Columns)+1),
	}
	for c, v := range t.Data {
		out.Data[c] = v
	}
	if !t.Has(name) {
		out.Columns = append(out.Columns, name)
	}
	out.Data[name] = slices.Clone(values)
	return out, nil
}
