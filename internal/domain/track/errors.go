package track

import "errors"

// Sentinel error kinds for track processing.
var (
	ErrMalformedTrack = errors.New("malformed track")
	ErrMissingColumn  = errors.New("missing track column")
)
