package grid

import "errors"

// ErrEmptyGrid is returned when a bracket is requested over no values.
var ErrEmptyGrid = errors.New("empty grid")
