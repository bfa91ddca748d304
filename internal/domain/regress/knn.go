// Package regress provides reference Predictor backends: a k-nearest
// neighbour regressor, a one-dimensional polynomial and a catalog-backed
// observables model. Together they let the emulator run from a track
// catalog alone.
package regress

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// sample is a training point with its target value.
type sample struct {
	x []float64
	y float64
}

// Compare implements kdtree.Comparable.
func (p sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(sample).x[d]
}

// Dims implements kdtree.Comparable.
func (p sample) Dims() int { return len(p.x) }

// Distance returns the squared Euclidean distance.
func (p sample) Distance(c kdtree.Comparable) float64 {
	q := c.(sample)
	var sum float64
	for i := range p.x {
		d := p.x[i] - q.x[i]
		sum += d * d
	}
	return sum
}

type samples []sample

func (s samples) Index(i int) kdtree.Comparable         { return s[i] }
func (s samples) Len() int                              { return len(s) }
func (s samples) Slice(start, end int) kdtree.Interface { return s[start:end] }

func (s samples) Pivot(d kdtree.Dim) int {
	p := plane{samples: s, Dim: d}
	return kdtree.Partition(p, kdtree.MedianOfRandoms(p, 100))
}

// plane sorts samples along one dimension.
type plane struct {
	samples
	kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.samples[i].x[p.Dim] < p.samples[j].x[p.Dim] }
func (p plane) Swap(i, j int)      { p.samples[i], p.samples[j] = p.samples[j], p.samples[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{samples: p.samples[start:end], Dim: p.Dim}
}

// KNN predicts the mean target of the k nearest training points.
type KNN struct {
	k    int
	dims int
	tree *kdtree.Tree
}

// NewKNN indexes X (one row per sample) and y.
func NewKNN(k int, X [][]float64, y []float64) (*KNN, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("knn with %d rows and %d targets: %w", len(X), len(y), ErrInsufficientData)
	}
	if k < 1 {
		k = 1
	}
	dims := len(X[0])
	pts := make(samples, len(X))
	for i, row := range X {
		if len(row) != dims {
			return nil, fmt.Errorf("knn row %d has %d features, want %d: %w", i, len(row), dims, ErrDimension)
		}
		pts[i] = sample{x: slices.Clone(row), y: y[i]}
	}
	return &KNN{k: k, dims: dims, tree: kdtree.New(pts, false)}, nil
}

// Predict implements emulator.Predictor.
func (m *KNN) Predict(in []float64) ([]float64, error) {
	if len(in) != m.dims {
		return nil, fmt.Errorf("knn got %d features, want %d: %w", len(in), m.dims, ErrDimension)
	}
	keeper := kdtree.NewNKeeper(m.k)
	m.tree.NearestSet(keeper, sample{x: in})

	var (
		sum float64
		n   int
	)
	for _, cd := range keeper.Heap {
		p, ok := cd.Comparable.(sample)
		if !ok {
			continue
		}
		sum += p.y
		n++
	}
	if n == 0 {
		return nil, ErrInsufficientData
	}
	return []float64{sum / float64(n)}, nil
}
