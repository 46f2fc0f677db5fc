package plugins

import (
	"github.com/kilianp07/pvcast/config"
	"github.com/kilianp07/pvcast/core/factory"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/core/prediction/cnn"
	"github.com/kilianp07/pvcast/infra/hdf5"
	"github.com/kilianp07/pvcast/infra/runlog"
)

func init() {
	_ = RegisterPredictor("cnn", func(conf map[string]any) (prediction.Model, error) {
		var c cnn.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return cnn.New(c, hdf5.OpenSet), nil
	})
	_ = RegisterPredictor("persistence", func(conf map[string]any) (prediction.Model, error) {
		var c struct {
			Variable string `json:"variable"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return &prediction.Persistence{Variable: c.Variable}, nil
	})

	RegisterHistory("jsonl", func(c config.HistoryConfig) (runlog.Store, error) {
		return runlog.NewJSONLStore(c.Path)
	})
	RegisterHistory("rotating", func(c config.HistoryConfig) (runlog.Store, error) {
		return runlog.NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	RegisterHistory("sqlite", func(c config.HistoryConfig) (runlog.Store, error) {
		return runlog.NewSQLiteStore(c.Path)
	})
}
