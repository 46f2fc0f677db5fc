package batch

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for batching.
var (
	ErrConfiguration   = errors.New("invalid batch configuration")
	ErrMissingVariable = errors.New("missing variable")
)

// MissingVariableError names the requested variable absent from the feature set.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("missing variable %q", e.Name)
}

// Is makes errors.Is(err, ErrMissingVariable) hold.
func (e *MissingVariableError) Is(target error) bool { return target == ErrMissingVariable }
