package config

import "errors"

// ErrInvalidConfig is wrapped by every validation failure so callers can use errors.Is.
var ErrInvalidConfig = errors.New("invalid config")
