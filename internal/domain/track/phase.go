package track

import (
	"fmt"
	"slices"
)

// Phase codes following the FSPS notation.
const (
	PhasePMS     = -1
	PhaseMS      = 0
	PhaseRGB     = 2
	PhaseCHeB    = 3
	PhaseEAGB    = 4
	PhaseTPAGB   = 5
	PhasePostAGB = 6
	PhaseWR      = 9
)

// Mass window boundaries (solar masses) for the trailing-phase trim.
const (
	wrTrimMinMass   = 60
	wrTrimMaxMass   = 110
	heTrimMinMass   = 115
	defaultHeliumEp = 1e-4
)

var phaseLabels = map[int]string{ //nolint:gochecknoglobals // read-only lookup table
	PhasePMS:     "PMS",
	PhaseMS:      "MS",
	PhaseRGB:     "RGB",
	PhaseCHeB:    "CHeB",
	PhaseEAGB:    "EAGB",
	PhaseTPAGB:   "TPAGB",
	PhasePostAGB: "postAGB",
	PhaseWR:      "WR",
}

// PhaseLabel returns the short name of a phase code.
func PhaseLabel(code int) (string, bool) {
	l, ok := phaseLabels[code]
	return l, ok
}

// PhasePolicy selects the evolutionary phases retained by Filter.
type PhasePolicy struct {
	Allowed         []int   `koanf:"allowed" json:"allowed"`
	WRCode          int     `koanf:"wr_code" json:"wr_code"`
	HeliumThreshold float64 `koanf:"helium_threshold" json:"helium_threshold"`
}

// DefaultPolicy keeps MS, RGB, CHeB and WR rows, i.e. ZAMS up to TACHeB.
func DefaultPolicy() PhasePolicy {
	return PhasePolicy{
		Allowed:         []int{PhaseMS, PhaseRGB, PhaseCHeB, PhaseWR},
		WRCode:          PhaseWR,
		HeliumThreshold: defaultHeliumEp,
	}
}

// Filter keeps the rows whose phase is allowed, then trims the helium
// exhausted tail depending on the track's initial mass:
//
//	60 <= M <= 110: drop WR rows with center_he4 <= threshold
//	M >= 115:       drop every row with center_he4 <= threshold
func Filter(t *Track, p PhasePolicy) (*Track, error) {
	phase, err := t.Column(ColPhase)
	if err != nil {
		return nil, err
	}
	he, err := t.Column(ColCenterHe4)
	if err != nil {
		return nil, err
	}

	allowed := func(code float64) bool {
		return slices.Contains(p.Allowed, int(code))
	}

	m := t.InitialMass
	var trim func(i int) bool
	switch {
	case m >= wrTrimMinMass && m <= wrTrimMaxMass:
		trim = func(i int) bool { return int(phase[i]) == p.WRCode && he[i] <= p.HeliumThreshold }
	case m >= heTrimMinMass:
		trim = func(i int) bool { return he[i] <= p.HeliumThreshold }
	default:
		trim = func(int) bool { return false }
	}

	return t.Select(func(i int) bool {
		return allowed(phase[i]) && !trim(i)
	}), nil
}

// Prepare filters t and appends the progress coordinate columns computed
// from log_L, log_Teff and log_center_Rho.
func Prepare(t *Track, p PhasePolicy) (*Track, error) {
	filtered, err := Filter(t, p)
	if err != nil {
		return nil, err
	}
	if filtered.Len() == 0 {
		return nil, fmt.Errorf("track %q has no rows after phase selection: %w", t.Name, ErrMalformedTrack)
	}
	return filtered.WithProgress(ColLogL, ColLogTeff, ColLogRho)
}
