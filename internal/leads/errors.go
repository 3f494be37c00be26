package leads

import "errors"

var (
	// ErrInvalidName is returned when the name is missing or shorter than two characters
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidEmail is returned when the email does not look like local@domain.tld
	ErrInvalidEmail = errors.New("invalid email")

	// ErrSaveFailed wraps storage failures on the create path
	ErrSaveFailed = errors.New("failed to save lead")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
