package depth

import "github.com/pkg/errors"

var (
	// ErrInvalidFocal is returned when the focal length is not a positive
	// finite number
	ErrInvalidFocal = errors.New("focal length must be positive")

	// ErrShapeMismatch is returned when the skeleton, keypoints and principal
	// points do not describe the same batch or joint count
	ErrShapeMismatch = errors.New("input shapes do not match")

	// ErrTooFewJoints is returned when fewer than two joints are supplied, there
	// is no joint to triangulate against the root
	ErrTooFewJoints = errors.New("at least two joints are required")

	// ErrInsufficientCandidates is returned by the resolver when fewer valid
	// depth candidates exist than the window size
	ErrInsufficientCandidates = errors.New("fewer depth candidates than window size")

	// ErrInvalidWindow is returned for a window size smaller than one
	ErrInvalidWindow = errors.New("window size must be at least 1")
)

// ElementError wraps an error for a single batch element
type ElementError struct {
	Index int
	Err   error
}

// Error implements the error interface
func (e *ElementError) Error() string {
	return errors.Wrapf(e.Err, "batch element %d", e.Index).Error()
}

// Unwrap returns the underlying error
func (e *ElementError) Unwrap() error {
	return e.Err
}
