package emulator

import "fmt"

// ScaleAge maps log age onto the track's [ZAMS, TACHeB] window:
// (logAge - logZAMS) / (logTACHeB - logZAMS).
func ScaleAge(logZAMS, logTACHeB, logAge float64) (float64, error) {
	span := logTACHeB - logZAMS
	if span == 0 {
		return 0, fmt.Errorf("log age window [%g, %g]: %w", logZAMS, logTACHeB, ErrDegenerateAgeWindow)
	}
	return (logAge - logZAMS) / span, nil
}
