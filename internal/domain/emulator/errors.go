package emulator

import "errors"

// Sentinel error kinds for the emulator pipeline.
var (
	ErrDegenerateAgeWindow = errors.New("degenerate age window")
	ErrModelInference      = errors.New("model inference failed")
	ErrShape               = errors.New("unexpected model output shape")
	ErrInvalidInput        = errors.New("invalid input")
	ErrMissingModel        = errors.New("missing model")
)
