package plugins

import (
	"fmt"

	"github.com/kilianp07/pvcast/config"
	"github.com/kilianp07/pvcast/core/factory"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/infra/runlog"
)

// HistoryFactory builds a run history store from its configuration.
type HistoryFactory func(cfg config.HistoryConfig) (runlog.Store, error)

var (
	predictors = factory.NewRegistry[prediction.Model]()
	histories  = map[string]HistoryFactory{}
)

// RegisterPredictor adds a model factory identified by name.
func RegisterPredictor(name string, f factory.Factory[prediction.Model]) error {
	return predictors.Register(name, f)
}

// NewPredictor creates the model described by cfg. The model is not set up.
func NewPredictor(cfg config.PluginConfig) (prediction.Model, error) {
	m, err := predictors.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("predictor %q: %w", cfg.Type, err)
	}
	return m, nil
}

// RegisterHistory adds a history store backend.
func RegisterHistory(name string, f HistoryFactory) { histories[name] = f }

// NewHistory creates the configured history store, or a NopStore when disabled.
func NewHistory(cfg config.HistoryConfig) (runlog.Store, error) {
	if !cfg.Enabled {
		return runlog.NopStore{}, nil
	}
	f, ok := histories[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown history backend %s", cfg.Backend)
	}
	return f(cfg)
}
