package regressor

import "github.com/pkg/errors"

var (
	// ErrInvalidIterations is returned when fewer than one refinement
	// iteration is requested
	ErrInvalidIterations = errors.New("iterations must be at least 1")

	// ErrDimension is returned when an input does not match the layer or
	// layout dimensions
	ErrDimension = errors.New("dimension mismatch")

	// ErrMissingArray is returned when a required array is absent from an
	// archive
	ErrMissingArray = errors.New("array missing from archive")
)
