package evaluation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/pvcast/core/model"
)

// MAE returns the mean absolute error between targets, of shape
// (samples, model.Horizon), and the predictions in sample order.
func MAE(targets model.Array, preds []model.Prediction) (float64, error) {
	if len(targets.Shape) != 2 || targets.Shape[1] != model.Horizon {
		return 0, fmt.Errorf("%w: targets shape %v, want (%d, %d)", ErrShapeMismatch, targets.Shape, len(preds), model.Horizon)
	}
	if targets.Len() != len(preds) {
		return 0, fmt.Errorf("%w: %d targets, %d predictions", ErrShapeMismatch, targets.Len(), len(preds))
	}
	if len(preds) == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrShapeMismatch)
	}
	flat := make([]float64, 0, len(preds)*model.Horizon)
	for i, p := range preds {
		if len(p) != model.Horizon {
			return 0, fmt.Errorf("%w: prediction %d has %d values", ErrShapeMismatch, i, len(p))
		}
		flat = append(flat, p...)
	}
	return floats.Distance(targets.Data, flat, 1) / float64(len(flat)), nil
}
