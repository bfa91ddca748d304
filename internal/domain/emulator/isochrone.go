package emulator

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Row is one line of the long-form isochrone table.
type Row struct {
	LogL       float64 `json:"log_L"`
	LogTeff    float64 `json:"log_Teff"`
	LogG       float64 `json:"log_g"`
	LogMini    float64 `json:"log_Mini"`
	LogElapsed float64 `json:"log_elapsed"`
	LogTestAge float64 `json:"log_test_age"`
	TScaled    float64 `json:"t_scaled"`
}

// Cell is one (mass, elapsed time) evaluation. Index orders the cells in
// the output: elapsed times in input order, masses in input order within.
type Cell struct {
	Index     int     `json:"index"`
	LogMass   float64 `json:"log_mass"`
	Elapsed   float64 `json:"elapsed"`
	LogZAMS   float64 `json:"log_zams"`
	LogTACHeB float64 `json:"log_tacheb"`
}

// CellResult is the outcome of a Cell. Skipped cells lie past the end of
// the modelled phase and carry no row.
type CellResult struct {
	Cell    Cell
	Row     Row
	Skipped bool
	Err     error
}

// CellEvaluator evaluates a single cell.
type CellEvaluator interface {
	EvaluateCell(ctx context.Context, c Cell) CellResult
}

// Runner evaluates a batch of cells. Results may come back in any order.
type Runner interface {
	Run(ctx context.Context, cells []Cell) ([]CellResult, error)
}

// Sequential evaluates cells one after another on the calling goroutine.
type Sequential struct {
	Eval CellEvaluator
}

// Run implements Runner.
func (r Sequential) Run(ctx context.Context, cells []Cell) ([]CellResult, error) {
	out := make([]CellResult, 0, len(cells))
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, r.Eval.EvaluateCell(ctx, c))
	}
	return out, nil
}

// EvaluateCell places the star at test_age = 10^logZAMS + elapsed and
// predicts its observables. The cell is skipped when test_age has reached
// 10^logTACHeB.
func (p *Pipeline) EvaluateCell(_ context.Context, c Cell) CellResult {
	res := CellResult{Cell: c}
	testAge := math.Pow(10, c.LogZAMS) + c.Elapsed
	if testAge >= math.Pow(10, c.LogTACHeB) {
		res.Skipped = true
		return res
	}

	logAge := math.Log10(testAge)
	pred, err := p.predictWithin(c.LogZAMS, c.LogTACHeB, logAge, c.LogMass)
	if err != nil {
		res.Err = fmt.Errorf("log mass %g, elapsed %g: %w", c.LogMass, c.Elapsed, err)
		return res
	}
	res.Row = Row{
		LogL:       pred.LogL,
		LogTeff:    pred.LogTeff,
		LogG:       pred.LogG,
		LogMini:    c.LogMass,
		LogElapsed: math.Log10(c.Elapsed),
		LogTestAge: logAge,
		TScaled:    pred.TScaled,
	}
	return res
}

// IsochroneSet holds one table per elapsed time plus the combined table.
type IsochroneSet struct {
	Times   []float64         `json:"times"`
	ByTime  map[float64][]Row `json:"-"`
	Rows    []Row             `json:"rows"`
	Skipped int               `json:"skipped"`
}

// Isochrone returns the rows for one elapsed time.
func (s *IsochroneSet) Isochrone(elapsed float64) []Row {
	return s.ByTime[elapsed]
}

// Isochrones computes isochrones from a Pipeline.
type Isochrones struct {
	pipeline *Pipeline
	runner   Runner
}

// IsochroneOption configures Isochrones.
type IsochroneOption func(*Isochrones)

// WithRunner replaces the sequential runner, e.g. with a worker pool.
func WithRunner(r Runner) IsochroneOption {
	return func(i *Isochrones) {
		if r != nil {
			i.runner = r
		}
	}
}

// NewIsochrones returns an isochrone computer over p.
func NewIsochrones(p *Pipeline, opts ...IsochroneOption) *Isochrones {
	i := &Isochrones{pipeline: p, runner: Sequential{Eval: p}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Compute evaluates every (mass, elapsed) pair. Boundary ages are predicted
// once per mass. Cells whose test age reaches the end of the track are
// omitted; any model failure aborts the computation.
func (i *Isochrones) Compute(ctx context.Context, logMasses, elapsed []float64) (*IsochroneSet, error) {
	for _, t := range elapsed {
		if !(t > 0) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("elapsed time %g: %w", t, ErrInvalidInput)
		}
	}

	zams := make([]float64, len(logMasses))
	tacheb := make([]float64, len(logMasses))
	for j, m := range logMasses {
		var err error
		zams[j], tacheb[j], err = i.pipeline.Boundaries(m)
		if err != nil {
			return nil, fmt.Errorf("log mass %g: %w", m, err)
		}
	}

	cells := make([]Cell, 0, len(elapsed)*len(logMasses))
	for _, t := range elapsed {
		for j, m := range logMasses {
			cells = append(cells, Cell{
				Index:     len(cells),
				LogMass:   m,
				Elapsed:   t,
				LogZAMS:   zams[j],
				LogTACHeB: tacheb[j],
			})
		}
	}

	results, err := i.runner.Run(ctx, cells)
	if err != nil {
		return nil, err
	}
	sort.Slice(results, func(a, b int) bool { return results[a].Cell.Index < results[b].Cell.Index })

	set := &IsochroneSet{
		Times:  append([]float64(nil), elapsed...),
		ByTime: make(map[float64][]Row, len(elapsed)),
	}
	for _, t := range elapsed {
		set.ByTime[t] = []Row{}
	}
	for _, r := range results {
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Skipped {
			set.Skipped++
			continue
		}
		set.ByTime[r.Cell.Elapsed] = append(set.ByTime[r.Cell.Elapsed], r.Row)
		set.Rows = append(set.Rows, r.Row)
	}
	return set, nil
}

// Reindex rebuilds ByTime from Rows and Times, e.g. after decoding a
// stored set.
func (s *IsochroneSet) Reindex() {
	s.ByTime = make(map[float64][]Row, len(s.Times))
	byLog := make(map[float64]float64, len(s.Times))
	for _, t := range s.Times {
		s.ByTime[t] = []Row{}
		byLog[math.Log10(t)] = t
	}
	for _, r := range s.Rows {
		if t, ok := byLog[r.LogElapsed]; ok {
			s.ByTime[t] = append(s.ByTime[t], r)
		}
	}
}
