package prediction

import (
	"context"

	"github.com/kilianp07/pvcast/core/model"
)

// MockModel returns a copy of Value for every sample. SetupErr, when set, is
// returned by Setup. SetupCalls counts Setup invocations.
type MockModel struct {
	Vars       []string
	Value      model.Prediction
	SetupErr   error
	SetupCalls int
	// Override, when non-nil, replaces the prediction of the sample at the
	// given absolute index.
	Override map[int]model.Prediction
}

// Setup implements Model.
func (m *MockModel) Setup(ctx context.Context, opts SetupOptions) error {
	m.SetupCalls++
	return m.SetupErr
}

// Variables implements Model.
func (m *MockModel) Variables() []string { return m.Vars }

// PredictBatch implements Model.
func (m *MockModel) PredictBatch(ctx context.Context, b model.Batch) ([]model.Prediction, error) {
	out := make([]model.Prediction, b.Size())
	for i := range out {
		src := m.Value
		if o, ok := m.Override[b.Offset+i]; ok {
			src = o
		}
		cp := make(model.Prediction, len(src))
		copy(cp, src)
		out[i] = cp
	}
	return out, nil
}
