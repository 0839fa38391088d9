package serving

import (
	"fmt"
	"time"
)

// validationError signals bad client input for 400 mapping.
type validationError struct{ msg string }

func (e validationError) Error() string { return e.msg }

// ErrValidation constructs a validation error.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// IsValidation reports whether err indicates bad client input (return 400).
func IsValidation(err error) bool {
	_, ok := err.(validationError)
	return ok
}

// decodeError signals an unreadable image for 400 mapping.
type decodeError struct{ cause error }

func (e decodeError) Error() string { return "could not decode image: " + e.cause.Error() }
func (e decodeError) Unwrap() error { return e.cause }

// ErrDecode wraps an image decoding failure.
func ErrDecode(cause error) error { return decodeError{cause: cause} }

// IsDecode reports whether err indicates an undecodable upload (return 400).
func IsDecode(err error) bool {
	_, ok := err.(decodeError)
	return ok
}

// capacityError signals pool saturation for 503 mapping. Callers should
// retry with backoff.
type capacityError struct{}

func (capacityError) Error() string { return "worker pool saturated" }

// ErrCapacity constructs a backpressure error.
func ErrCapacity() error { return capacityError{} }

// IsCapacity reports whether err indicates backpressure (return 503).
func IsCapacity(err error) bool {
	_, ok := err.(capacityError)
	return ok
}

// timeoutError signals a job exceeding the configured deadline.
type timeoutError struct{ timeout time.Duration }

func (e timeoutError) Error() string {
	return fmt.Sprintf("inference timed out after %s", e.timeout)
}

// ErrTimeout constructs a deadline error.
func ErrTimeout(timeout time.Duration) error { return timeoutError{timeout: timeout} }

// IsTimeout reports whether err indicates a per-request deadline hit (503).
func IsTimeout(err error) bool {
	_, ok := err.(timeoutError)
	return ok
}

// inferenceError signals an unexpected failure inside the model or
// postprocess path. The request fails but the process stays up.
type inferenceError struct{ cause error }

func (e inferenceError) Error() string { return "inference failed: " + e.cause.Error() }
func (e inferenceError) Unwrap() error { return e.cause }

// ErrInference wraps an internal pipeline failure.
func ErrInference(cause error) error { return inferenceError{cause: cause} }

// IsInference reports whether err indicates an internal pipeline failure (500).
func IsInference(err error) bool {
	_, ok := err.(inferenceError)
	return ok
}
