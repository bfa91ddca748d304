package catalog

import "errors"

// Sentinel error kinds for catalog lookups.
var (
	ErrEmptyCatalog  = errors.New("empty catalog")
	ErrMissingTarget = errors.New("missing target variable")
	ErrDuplicateMass = errors.New("duplicate initial mass")
	ErrInvalidQuery  = errors.New("mass and progress must be finite")
)
