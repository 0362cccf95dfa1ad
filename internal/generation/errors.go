package generation

import "errors"

// Common errors returned by the generation package and its implementations.
var (
	// ErrMissingCredential is returned when the API key is absent or does
	// not match the expected shape. Never retried.
	ErrMissingCredential = errors.New("API key is missing or malformed")

	// ErrInvalidResponse is returned when the completion response cannot be
	// parsed or contains no usable choice. Not retried.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")
)
