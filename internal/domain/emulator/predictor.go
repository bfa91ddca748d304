// Package emulator chains learned predictors into age + mass queries:
// boundary ages, scaled age, progress coordinate and finally observables.
// It also assembles isochrones from independent (mass, elapsed time) cells.
package emulator

import "fmt"

// Predictor is an opaque, already trained model with a fixed input and
// output shape. Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(in []float64) ([]float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(in []float64) ([]float64, error)

// Predict calls f(in).
func (f PredictorFunc) Predict(in []float64) ([]float64, error) {
	return f(in)
}

// Models bundles the four predictors used by the pipeline.
//
//	AgeStart:    [log M]        -> [log age at ZAMS]
//	AgeEnd:      [log M]        -> [log age at TACHeB]
//	Progress:    [t_scaled, log M] -> [s]
//	Observables: [s, log M]     -> [log L, log Teff, log g]
type Models struct {
	AgeStart    Predictor
	AgeEnd      Predictor
	Progress    Predictor
	Observables Predictor
}

// Validate checks that every model is set.
func (m Models) Validate() error {
	switch {
	case m.AgeStart == nil:
		return fmt.Errorf("age start: %w", ErrMissingModel)
	case m.AgeEnd == nil:
		return fmt.Errorf("age end: %w", ErrMissingModel)
	case m.Progress == nil:
		return fmt.Errorf("progress: %w", ErrMissingModel)
	case m.Observables == nil:
		return fmt.Errorf("observables: %w", ErrMissingModel)
	}
	return nil
}

// call runs p and checks the output width.
func call(name string, p Predictor, width int, in ...float64) ([]float64, error) {
	out, err := p.Predict(in)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w: %w", name, ErrModelInference, err)
	}
	if len(out) != width {
		return nil, fmt.Errorf("%s model returned %d values, want %d: %w: %w", name, len(out), width, ErrModelInference, ErrShape)
	}
	return out, nil
}
