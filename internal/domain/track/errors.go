package track

import "errors"

// Sentinel kinds for track state errors.
var (
	// ErrOrderingViolation means a same-track observation arrived with
	// a timestamp older than the last one seen. The call is a no-op.
	ErrOrderingViolation = errors.New("observation out of timestamp order")
)

// IsOrderingViolation reports whether err wraps ErrOrderingViolation.
func IsOrderingViolation(err error) bool {
	return errors.Is(err, ErrOrderingViolation)
}
