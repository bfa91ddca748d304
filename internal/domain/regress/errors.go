package regress

import "errors"

// Sentinel error kinds for the reference predictors.
var (
	ErrInsufficientData = errors.New("insufficient training samples")
	ErrDimension        = errors.New("input dimension mismatch")
)
