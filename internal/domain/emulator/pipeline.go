package emulator

import (
	"context"
	"fmt"
	"math"
)

// Observables are the predicted surface quantities.
type Observables struct {
	LogL    float64 `json:"log_L"`
	LogTeff float64 `json:"log_Teff"`
	LogG    float64 `json:"log_g"`
}

// Prediction is a pipeline answer with its intermediate values.
type Prediction struct {
	Observables
	LogAgeZAMS   float64 `json:"log_age_zams"`
	LogAgeTACHeB float64 `json:"log_age_tacheb"`
	TScaled      float64 `json:"t_scaled"`
	S            float64 `json:"s"`
}

// Pipeline answers (age, mass) queries from four predictors. It holds no
// mutable state and may be shared between goroutines.
type Pipeline struct {
	models Models
}

// NewPipeline validates the models and returns a Pipeline.
func NewPipeline(m Models) (*Pipeline, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{models: m}, nil
}

// Boundaries predicts log age at ZAMS and at TACHeB for logMass.
func (p *Pipeline) Boundaries(logMass float64) (logZAMS, logTACHeB float64, err error) {
	start, err := call("age start", p.models.AgeStart, 1, logMass)
	if err != nil {
		return 0, 0, err
	}
	end, err := call("age end", p.models.AgeEnd, 1, logMass)
	if err != nil {
		return 0, 0, err
	}
	return start[0], end[0], nil
}

// Progress predicts s from the scaled age.
func (p *Pipeline) Progress(tScaled, logMass float64) (float64, error) {
	out, err := call("progress", p.models.Progress, 1, tScaled, logMass)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// Observe predicts observables at progress coordinate s.
func (p *Pipeline) Observe(s, logMass float64) (Observables, error) {
	out, err := call("observables", p.models.Observables, 3, s, logMass)
	if err != nil {
		return Observables{}, err
	}
	return Observables{LogL: out[0], LogTeff: out[1], LogG: out[2]}, nil
}

// Predict returns observables for a star of log initial mass logMass at
// physical age testAge (years).
func (p *Pipeline) Predict(ctx context.Context, testAge, logMass float64) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if !(testAge > 0) || math.IsInf(testAge, 0) {
		return Prediction{}, fmt.Errorf("test age %g: %w", testAge, ErrInvalidInput)
	}

	logZAMS, logTACHeB, err := p.Boundaries(logMass)
	if err != nil {
		return Prediction{}, err
	}
	return p.predictWithin(logZAMS, logTACHeB, math.Log10(testAge), logMass)
}

// predictWithin runs the scaled-age, progress and observables steps for
// known boundary ages.
func (p *Pipeline) predictWithin(logZAMS, logTACHeB, logAge, logMass float64) (Prediction, error) {
	tScaled, err := ScaleAge(logZAMS, logTACHeB, logAge)
	if err != nil {
		return Prediction{}, err
	}
	s, err := p.Progress(tScaled, logMass)
	if err != nil {
		return Prediction{}, err
	}
	obs, err := p.Observe(s, logMass)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{
		Observables:  obs,
		LogAgeZAMS:   logZAMS,
		LogAgeTACHeB: logTACHeB,
		TScaled:      tScaled,
		S:            s,
	}, nil
}

// Track predicts observables along sGrid for one mass, i.e. an emulated
// HR / Kiel diagram track.
func (p *Pipeline) Track(ctx context.Context, logMass float64, sGrid []float64) ([]Observables, error) {
	out := make([]Observables, len(sGrid))
	for i, s := range sGrid {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs, err := p.Observe(s, logMass)
		if err != nil {
			return nil, err
		}
		out[i] = obs
	}
	return out, nil
}
