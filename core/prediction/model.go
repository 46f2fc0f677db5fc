package prediction

import (
	"context"
	"fmt"
	"strings"

	"github.com/kilianp07/pvcast/core/logger"
	"github.com/kilianp07/pvcast/core/model"
)

// Supported compute devices.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
)

// SetupOptions carries the process-level choices a model needs at setup time.
type SetupOptions struct {
	// Device is the compute backend, already resolved by ResolveDevice.
	Device string
	Logger logger.Logger
}

// Model forecasts PV output for batches of samples.
type Model interface {
	// Setup loads parameters and prepares the model. It is called exactly once
	// before any batch.
	Setup(ctx context.Context, opts SetupOptions) error
	// Variables lists the feature variables the model consumes, in the order
	// they appear in the batches handed to PredictBatch.
	Variables() []string
	// PredictBatch returns one prediction per sample of b.
	PredictBatch(ctx context.Context, b model.Batch) ([]model.Prediction, error)
}

// Named is implemented by models that report a name for logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns the model's name, or its Go type when it has none.
func NameOf(m Model) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", m), "*")
}

// ResolveDevice maps a configured device to the backend the process will use.
// Only the CPU backend is available; "auto" and "" select it.
func ResolveDevice(device string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(device)) {
	case "", DeviceAuto, DeviceCPU:
		return DeviceCPU, nil
	default:
		return "", fmt.Errorf("%w: unsupported device %q", ErrSetup, device)
	}
}
