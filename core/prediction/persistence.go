package prediction

import (
	"context"
	"fmt"

	"github.com/kilianp07/pvcast/core/model"
)

// Persistence forecasts that PV output stays at its most recent reading for
// the whole horizon.
type Persistence struct {
	// Variable is the PV history series; defaults to "pv".
	Variable string
}

// Name implements Named.
func (p *Persistence) Name() string { return "persistence" }

// Setup implements Model. Persistence has no parameters.
func (p *Persistence) Setup(ctx context.Context, opts SetupOptions) error {
	if p.Variable == "" {
		p.Variable = "pv"
	}
	return ctx.Err()
}

// Variables implements Model.
func (p *Persistence) Variables() []string { return []string{p.Variable} }

// PredictBatch implements Model.
func (p *Persistence) PredictBatch(ctx context.Context, b model.Batch) ([]model.Prediction, error) {
	pv, ok := b.Get(p.Variable)
	if !ok {
		return nil, fmt.Errorf("%w: batch has no %s", ErrInput, p.Variable)
	}
	if pv.RowSize() == 0 {
		return nil, fmt.Errorf("%w: %s rows are empty", ErrInput, p.Variable)
	}
	out := make([]model.Prediction, pv.Len())
	for i := range out {
		row := pv.Row(i)
		last := row[len(row)-1]
		pred := make(model.Prediction, model.Horizon)
		for j := range pred {
			pred[j] = last
		}
		out[i] = pred
	}
	return out, nil
}
