package odometry

import "errors"

// Sentinel errors for precondition violations.
var (
	// ErrFrameTooSmall is returned when a frame is too small to sample a patch from.
	ErrFrameTooSmall = errors.New("odometry: frame too small")

	// ErrFrameMismatch is returned when the two frames differ in size.
	ErrFrameMismatch = errors.New("odometry: frame sizes differ")

	// ErrInvalidTrials is returned for a non-positive trial count.
	ErrInvalidTrials = errors.New("odometry: trial count must be positive")

	// ErrPatchTooLarge is returned when a patch exceeds the searched frame.
	ErrPatchTooLarge = errors.New("odometry: patch larger than frame")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("odometry: invalid config")

	// ErrUnknownMatcher is returned for an unregistered matcher name.
	ErrUnknownMatcher = errors.New("odometry: unknown matcher")
)

// IsPrecondition reports whether err is a caller-side precondition violation
// rather than an internal failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrFrameTooSmall) ||
		errors.Is(err, ErrFrameMismatch) ||
		errors.Is(err, ErrInvalidTrials) ||
		errors.Is(err, ErrPatchTooLarge) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUnknownMatcher)
}
