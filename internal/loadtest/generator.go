package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/okian/stellaremu/pkg/logger"
)

// Constants for synthetic track shapes.
const (
	randomFloatDivisor = 1000000
	msLifetimeSun      = 1e10
	msLifetimeExponent = 2.5
	pmsAgeFraction     = 0.01
	zamsAgeFraction    = 0.05
	ageSpanFraction    = 1.05
	rgbStart           = 0.7
	chebStart          = 0.85
	massLuminosityExp  = 3.5
	initialHelium      = 0.98

	phasePMS  = -1
	phaseMS   = 0
	phaseRGB  = 2
	phaseCHeB = 3
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// msLifetime is the toy main-sequence lifetime of a star of mass m.
func msLifetime(m float64) float64 {
	return msLifetimeSun * math.Pow(m, -msLifetimeExponent)
}

// zamsAge is the age of the first post-PMS row of a toy track.
func zamsAge(m float64) float64 {
	return msLifetime(m) * zamsAgeFraction
}

// terminalAge is the age of the last row of a toy track.
func terminalAge(m float64) float64 {
	return msLifetime(m) * (zamsAgeFraction + ageSpanFraction)
}

// generateTracks creates NumTracks synthetic tracks with log-spaced masses.
func generateTracks(ctx context.Context, config *Config, stats *Stats) ([]TrackPayload, error) {
	logger.Get().Info(ctx, "generating synthetic tracks", logger.Int("numTracks", config.NumTracks))

	if config.NumTracks < 1 || config.Rows < 2 {
		return nil, fmt.Errorf("need at least one track of two rows, got %d x %d", config.NumTracks, config.Rows)
	}
	if !(config.MinMass > 0) || config.MaxMass < config.MinMass {
		return nil, fmt.Errorf("invalid mass range [%g, %g]", config.MinMass, config.MaxMass)
	}

	masses := []float64{config.MinMass}
	if config.NumTracks > 1 {
		masses = floats.LogSpan(make([]float64, config.NumTracks), config.MinMass, config.MaxMass)
	}

	type trackResult struct {
		index int
		track TrackPayload
	}
	resultChan := make(chan trackResult, config.NumTracks)

	workerCount := max(1, min(config.Workers, config.NumTracks))
	perWorker := config.NumTracks / workerCount
	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumTracks
		}
		go func(start, end int) {
			for i := start; i < end; i++ {
				resultChan <- trackResult{index: i, track: toyTrack(i, masses[i], config.Rows)}
			}
		}(start, end)
	}

	tracks := make([]TrackPayload, config.NumTracks)
	for i := 0; i < config.NumTracks; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during track generation: %w", ctx.Err())
		case result := <-resultChan:
			tracks[result.index] = result.track
		}
	}

	stats.TracksGenerated = len(tracks)
	logger.Get().Info(ctx, "generated tracks successfully", logger.Int("count", len(tracks)))
	return tracks, nil
}

// toyTrack builds a monotone track: one PMS row followed by MS, RGB and
// CHeB rows with luminosity rising and effective temperature falling.
func toyTrack(index int, mass float64, rows int) TrackPayload {
	lm := math.Log10(mass)
	life := msLifetime(mass)
	cols := map[string][]float64{}
	add := func(k string, v float64) { cols[k] = append(cols[k], v) }

	add("star_age", life*pmsAgeFraction)
	add("phase", phasePMS)
	add("log_L", massLuminosityExp*lm-1)
	add("log_Teff", 3.6+0.1*lm)
	add("log_center_Rho", 1)
	add("center_he4", 0.28)
	add("log_center_T", 6.9)
	add("log_g", 4.6)

	for i := 0; i < rows; i++ {
		f := float64(i) / float64(rows-1)
		phase := phaseMS
		switch {
		case f >= chebStart:
			phase = phaseCHeB
		case f >= rgbStart:
			phase = phaseRGB
		}
		add("star_age", life*(zamsAgeFraction+ageSpanFraction*f))
		add("phase", float64(phase))
		add("log_L", massLuminosityExp*lm+0.8*f)
		add("log_Teff", 3.76+0.15*lm-0.25*f)
		add("log_center_Rho", 2+2*f)
		add("center_he4", initialHelium*(1-f))
		add("log_center_T", 7.1+0.2*f)
		add("log_g", 4.4-2*f)
	}

	return TrackPayload{
		Name:        "toy_" + strconv.Itoa(index) + "_" + strconv.FormatFloat(mass, 'f', 3, 64),
		InitialMass: mass,
		Columns:     cols,
	}
}

// randomPrediction picks a mass in the configured range and an age inside
// its modelled window.
func randomPrediction(config *Config) PredictRequest {
	lo, hi := math.Log10(config.MinMass), math.Log10(config.MaxMass)
	lm := lo + getRandomFloat()*(hi-lo)
	m := math.Pow(10, lm)
	age := zamsAge(m) + getRandomFloat()*(terminalAge(m)-zamsAge(m))
	return PredictRequest{TestAge: age, LogMass: lm}
}

// randomIsochrone requests a handful of masses at elapsed times spread
// over the lifetime of the middle mass.
func randomIsochrone(config *Config) IsochroneRequest {
	const (
		numMasses = 5
		numTimes  = 3
	)
	lo, hi := math.Log10(config.MinMass), math.Log10(config.MaxMass)
	logMasses := floats.Span(make([]float64, numMasses), lo, hi)

	mid := math.Pow(10, (lo+hi)/2)
	window := terminalAge(mid) - zamsAge(mid)
	elapsed := make([]float64, numTimes)
	for i := range elapsed {
		elapsed[i] = window * (float64(i) + getRandomFloat()) / numTimes
	}
	elapsed[0] = max(elapsed[0], window*pmsAgeFraction)
	return IsochroneRequest{LogMasses: logMasses, Elapsed: elapsed}
}
