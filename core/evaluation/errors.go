package evaluation

import "errors"

// ErrShapeMismatch is returned when predictions and targets cannot be compared.
var ErrShapeMismatch = errors.New("predictions and targets differ in shape")
