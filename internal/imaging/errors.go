package imaging

import "errors"

var (
	// ErrInvalidImage is returned for undecodable, empty or zero-size input.
	ErrInvalidImage = errors.New("invalid image")
	// ErrDimensionMismatch is returned when an image does not fit its placement.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
