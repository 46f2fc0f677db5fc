package stream

import (
	"errors"
	"fmt"

	"github.com/kilianp07/pvcast/core/model"
)

// ErrShape is matched by every *ShapeError.
var ErrShape = errors.New("prediction shape mismatch")

// ShapeError reports a prediction whose length is not model.Horizon.
type ShapeError struct {
	Index int
	Len   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("prediction %d has %d values, want %d", e.Index, e.Len, model.Horizon)
}

// Is makes errors.Is(err, ErrShape) hold.
func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// CheckShapes returns a *ShapeError for the first prediction of the wrong length.
func CheckShapes(preds []model.Prediction) error {
	for i, p := range preds {
		if !p.Valid() {
			return &ShapeError{Index: i, Len: len(p)}
		}
	}
	return nil
}
