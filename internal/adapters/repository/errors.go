package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound           = errors.New("record not found")
	ErrUnsupportedBackend = errors.New("unsupported store backend")
	ErrNotInitialized     = errors.New("store is not initialized")
	ErrInvalidRecord      = errors.New("invalid record")
)
