package orders

import "errors"

// ErrOrderNotFound maps to a 404 in the handler layer.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError rejects a request without changing state (bad OTP,
// missing receipt, malformed input). Maps to 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError rejects a request that collides with current state (driver
// already delivering, cancelling a paid order). Maps to 409.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }
