package intent

import "errors"

var (
	// ErrInvalidConfig is returned when a required configuration value is empty
	ErrInvalidConfig = errors.New("invalid payment config")

	// ErrInvalidRequest is returned when the provider rejects the parameters
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the secret key is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid secret key")

	// ErrPaymentFailed is returned for any other provider-side failure
	ErrPaymentFailed = errors.New("payment failed")

	// ErrNetworkError is returned when the provider cannot be reached
	ErrNetworkError = errors.New("network error")
)
