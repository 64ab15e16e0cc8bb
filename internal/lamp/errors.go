package lamp

import "errors"

// Domain errors for payload handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPayload is returned when an inbound payload is not a UTF-8
	// JSON object.
	ErrInvalidPayload = errors.New("lamp: invalid payload")

	// ErrInvalidField is returned when a payload field has the wrong type.
	ErrInvalidField = errors.New("lamp: invalid payload field")
)
