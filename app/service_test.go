package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvcast/config"
	"github.com/kilianp07/pvcast/core/feature"
	coremetrics "github.com/kilianp07/pvcast/core/metrics"
	"github.com/kilianp07/pvcast/core/model"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/infra/logger"
	"github.com/kilianp07/pvcast/infra/runlog"
)

func zeros() model.Prediction { return make(model.Prediction, model.Horizon) }

func memoryOpener(sets map[string]feature.MemorySet) Opener {
	return func(path string) (feature.Set, func() error, error) {
		s, ok := sets[path]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", feature.ErrInputNotFound, path)
		}
		return s, func() error { return nil }, nil
	}
}

func newService(t *testing.T, m prediction.Model, sets map[string]feature.MemorySet) (*Service, *runlog.JSONLStore) {
	t.Helper()
	cfg := config.Default()
	cfg.Stream.Directory = t.TempDir()
	hist, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	svc, err := New(cfg,
		WithModel(m),
		WithOpener(memoryOpener(sets)),
		WithHistory(hist),
		WithMetrics(coremetrics.NopSink{}),
		WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, hist
}

func TestRunLive(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv", "hrv"}, Value: zeros()}
	sets := map[string]feature.MemorySet{"in.hdf5": {
		"pv":  model.NewArray(5, 12),
		"hrv": model.NewArray(5, 12, 2, 2),
	}}
	svc, hist := newService(t, m, sets)

	require.NoError(t, svc.RunLive(context.Background(), "in.hdf5"))
	assert.Equal(t, 1, m.SetupCalls)

	data, err := os.ReadFile(svc.SinkPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "OK", lines[0])
	assert.Equal(t, strings.Repeat("0.0,", model.Horizon-1)+"0.0", lines[1])

	recs, err := hist.Query(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "live", recs[0].Mode)
	assert.Equal(t, "in.hdf5", recs[0].Input)
	assert.Equal(t, 5, recs[0].Samples)
	assert.Empty(t, recs[0].Error)
}

func TestRunLive_MissingInput(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv"}, Value: zeros()}
	svc, hist := newService(t, m, nil)

	err := svc.RunLive(context.Background(), "missing.hdf5")
	assert.ErrorIs(t, err, feature.ErrInputNotFound)

	data, rerr := os.ReadFile(svc.SinkPath())
	require.NoError(t, rerr)
	assert.Equal(t, "OK\n", string(data))

	recs, qerr := hist.Query(context.Background(), runlog.Query{})
	require.NoError(t, qerr)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].Error)
}

func TestRunLive_SetupFailsBeforeSink(t *testing.T) {
	m := &prediction.MockModel{SetupErr: assert.AnError}
	svc, _ := newService(t, m, nil)

	err := svc.RunLive(context.Background(), "in.hdf5")
	assert.ErrorIs(t, err, prediction.ErrSetup)
	_, statErr := os.Stat(svc.SinkPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunValidation(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv"}, Value: zeros()}
	sets := map[string]feature.MemorySet{config.Default().Validation.DataPath: {
		"pv":      model.NewArray(10, 12),
		"targets": model.NewArray(10, model.Horizon),
	}}
	svc, _ := newService(t, m, sets)

	var out bytes.Buffer
	require.NoError(t, svc.RunValidation(context.Background(), &out))
	assert.Equal(t, "MAE: 0.0\n", out.String())

	recs, err := svc.History(context.Background(), runlog.Query{Mode: "validation"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].MAE)
	assert.Equal(t, 0.0, *recs[0].MAE)
}

func TestRunValidation_MissingInput(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv"}, Value: zeros()}
	svc, _ := newService(t, m, nil)

	var out bytes.Buffer
	require.NoError(t, svc.RunValidation(context.Background(), &out))
	assert.Equal(t, "Unable to load features at `data/validation/data.hdf5`\n", out.String())
	assert.Zero(t, m.SetupCalls)
}

func TestNew_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluator.Predictor = config.PluginConfig{Type: "persistence"}
	cfg.History = config.HistoryConfig{Enabled: true, Backend: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}
	svc, err := New(cfg, WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	assert.IsType(t, &prediction.Persistence{}, svc.model)
	assert.IsType(t, coremetrics.NopSink{}, svc.sink)
	assert.IsType(t, &runlog.SQLiteStore{}, svc.history)
	require.NoError(t, svc.Close())

	cfg.Evaluator.Predictor.Type = "unknown"
	_, err = New(cfg, WithLogger(logger.NopLogger{}))
	assert.Error(t, err)
}
