package prediction

import "errors"

// Sentinel error kinds for models.
var (
	// ErrSetup wraps every failure to prepare a model, such as unreadable
	// parameters or an unsupported device.
	ErrSetup = errors.New("model setup failed")
	// ErrInput is returned when a batch does not carry what the model needs.
	ErrInput = errors.New("invalid model input")
)
