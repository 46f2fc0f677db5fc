package feature

import "errors"

// Sentinel error kinds for feature sources.
var (
	// ErrInputNotFound is returned when the feature container does not exist.
	ErrInputNotFound = errors.New("input not found")
	// ErrUnknownVariable is returned when a series is requested that the source does not hold.
	ErrUnknownVariable = errors.New("unknown variable")
)
