package director

import "errors"

// Domain errors for the director package.
var (
	// ErrNoDeviceID is returned when a controller is created without a device identity.
	ErrNoDeviceID = errors.New("director: device id required")

	// ErrNoPublisher is returned when a controller is created without a publisher.
	ErrNoPublisher = errors.New("director: publisher required")

	// ErrInvalidPolicy is returned when the policy window or tick interval is not positive.
	ErrInvalidPolicy = errors.New("director: invalid policy")
)
