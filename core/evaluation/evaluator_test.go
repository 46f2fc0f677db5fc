package evaluation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pvcast/core/batch"
	"github.com/kilianp07/pvcast/core/feature"
	"github.com/kilianp07/pvcast/core/metrics"
	"github.com/kilianp07/pvcast/core/model"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/core/stream"
)

type recordingSink struct {
	batches []metrics.BatchEvent
	runs    []metrics.RunEvent
}

func (s *recordingSink) RecordBatch(ev metrics.BatchEvent) error {
	s.batches = append(s.batches, ev)
	return nil
}

func (s *recordingSink) RecordRun(ev metrics.RunEvent) error {
	s.runs = append(s.runs, ev)
	return nil
}

func constant(v float64) model.Prediction {
	p := make(model.Prediction, model.Horizon)
	for i := range p {
		p[i] = v
	}
	return p
}

func features(n int) feature.MemorySet {
	return feature.MemorySet{
		"pv":      model.NewArray(n, 12),
		"hrv":     model.NewArray(n, 12, 4, 4),
		"targets": model.NewArray(n, model.Horizon),
	}
}

func newEvaluator(t *testing.T, m prediction.Model, sink metrics.MetricsSink) *Evaluator {
	t.Helper()
	e, err := New(context.Background(), m, Options{BatchSize: 4, Metrics: sink})
	require.NoError(t, err)
	return e
}

func TestNew_SetupOnce(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0)}
	e := newEvaluator(t, m, nil)
	assert.Equal(t, 1, m.SetupCalls)
	assert.Equal(t, "prediction.MockModel", e.ModelName())

	set := features(10)
	_, err := e.Validate(context.Background(), set, "")
	require.NoError(t, err)
	_, err = e.Stream(context.Background(), set, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.SetupCalls)
}

func TestNew_SetupError(t *testing.T) {
	m := &prediction.MockModel{SetupErr: errors.New("weights missing")}
	_, err := New(context.Background(), m, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, prediction.ErrSetup)
	assert.Contains(t, err.Error(), "weights missing")
}

func TestNew_UnknownDevice(t *testing.T) {
	m := &prediction.MockModel{}
	_, err := New(context.Background(), m, Options{Device: "cuda"})
	assert.ErrorIs(t, err, prediction.ErrSetup)
	assert.Zero(t, m.SetupCalls)
}

func TestStream_Protocol(t *testing.T) {
	sink := &recordingSink{}
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv", "hrv"}, Value: constant(0.5)}, sink)

	var out bytes.Buffer
	sum, err := e.Stream(context.Background(), features(10), &out)
	require.NoError(t, err)
	assert.Equal(t, 10, sum.Samples)
	assert.Equal(t, 3, sum.Batches)
	assert.Equal(t, ModeLive, sum.Mode)
	assert.NotEmpty(t, sum.RunID)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, stream.ReadyLine, lines[0])
	for _, l := range lines[1:] {
		fields := strings.Split(l, ",")
		require.Len(t, fields, model.Horizon)
		assert.Equal(t, "0.5", fields[0])
	}

	require.Len(t, sink.batches, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{sink.batches[0].Samples, sink.batches[1].Samples, sink.batches[2].Samples})
	require.Len(t, sink.runs, 1)
	assert.Equal(t, "ok", sink.runs[0].Status())
	assert.Nil(t, sink.runs[0].MAE)
}

func TestStream_ShortPrediction(t *testing.T) {
	m := &prediction.MockModel{
		Vars:     []string{"pv"},
		Value:    constant(1),
		Override: map[int]model.Prediction{5: make(model.Prediction, 47)},
	}
	sink := &recordingSink{}
	e := newEvaluator(t, m, sink)

	var out bytes.Buffer
	sum, err := e.Stream(context.Background(), features(10), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, stream.ErrShape)
	var se *stream.ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 47, se.Len)

	// The first batch was written, the offending one was not.
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
	assert.Equal(t, 1, sum.Batches)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, "error", sink.runs[0].Status())
}

func TestStreamFrom_ReadyBeforeOpen(t *testing.T) {
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0)}, nil)
	var out bytes.Buffer
	closed := false
	_, err := e.StreamFrom(context.Background(), func() (feature.Set, func() error, error) {
		assert.Equal(t, "OK\n", out.String())
		return features(3), func() error { closed = true; return nil }, nil
	}, &out)
	require.NoError(t, err)
	assert.True(t, closed)

	out.Reset()
	_, err = e.StreamFrom(context.Background(), func() (feature.Set, func() error, error) {
		return nil, nil, feature.ErrInputNotFound
	}, &out)
	assert.ErrorIs(t, err, feature.ErrInputNotFound)
	assert.Equal(t, "OK\n", out.String())
}

func TestStream_MissingVariable(t *testing.T) {
	m := &prediction.MockModel{Vars: []string{"pv", "nwp"}, Value: constant(0)}
	e := newEvaluator(t, m, nil)
	var out bytes.Buffer
	_, err := e.Stream(context.Background(), features(10), &out)
	require.Error(t, err)
	var mv *batch.MissingVariableError
	require.True(t, errors.As(err, &mv))
	assert.Equal(t, "nwp", mv.Name)
	assert.Equal(t, "OK\n", out.String())
}

func TestStream_Canceled(t *testing.T) {
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0)}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Stream(ctx, features(10), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_ZeroError(t *testing.T) {
	sink := &recordingSink{}
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv", "hrv"}, Value: constant(0)}, sink)
	res, err := e.Validate(context.Background(), features(10), DefaultTargets)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.MAE)
	assert.Equal(t, 10, res.Samples)
	assert.Equal(t, ModeValidation, res.Mode)
	require.Len(t, sink.runs, 1)
	require.NotNil(t, sink.runs[0].MAE)
	assert.Equal(t, 0.0, *sink.runs[0].MAE)
}

func TestValidate_MAE(t *testing.T) {
	set := features(6)
	for i := range set["targets"].Data {
		set["targets"].Data[i] = 1
	}
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0.25)}, nil)
	res, err := e.Validate(context.Background(), set, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.MAE, 1e-12)
}

func TestValidate_TargetCountMismatch(t *testing.T) {
	set := features(10)
	set["targets"] = model.NewArray(9, model.Horizon)
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0)}, nil)
	_, err := e.Validate(context.Background(), set, "")
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestValidate_MissingTargets(t *testing.T) {
	set := features(4)
	delete(set, "targets")
	e := newEvaluator(t, &prediction.MockModel{Vars: []string{"pv"}, Value: constant(0)}, nil)
	_, err := e.Validate(context.Background(), set, "")
	assert.ErrorIs(t, err, batch.ErrMissingVariable)
}

func TestValidate_ShortPrediction(t *testing.T) {
	m := &prediction.MockModel{
		Vars:     []string{"pv"},
		Value:    constant(0),
		Override: map[int]model.Prediction{2: make(model.Prediction, 47)},
	}
	e := newEvaluator(t, m, nil)
	_, err := e.Validate(context.Background(), features(10), "")
	assert.ErrorIs(t, err, stream.ErrShape)
}

func TestPredict_Idempotent(t *testing.T) {
	set := features(10)
	for i := range set["pv"].Data {
		set["pv"].Data[i] = float64(i)
	}
	e := newEvaluator(t, &prediction.Persistence{}, nil)
	collect := func() []model.Prediction {
		p, err := e.Predict(context.Background(), set)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Total())
		var all []model.Prediction
		for p.Next() {
			all = append(all, p.Batch()...)
		}
		require.NoError(t, p.Err())
		return all
	}
	first := collect()
	require.Len(t, first, 10)
	assert.Equal(t, first, collect())
	assert.Equal(t, 11.0, first[0][0])
	assert.Equal(t, 119.0, first[9][47])
}

func TestMAE(t *testing.T) {
	targets := model.NewArray(2, model.Horizon)
	for i := range targets.Data {
		targets.Data[i] = 2
	}
	got, err := MAE(targets, []model.Prediction{constant(1), constant(4)})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got, 1e-12)

	_, err = MAE(targets, []model.Prediction{constant(1)})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = MAE(model.NewArray(2, 24), []model.Prediction{constant(1), constant(1)})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = MAE(model.NewArray(0, model.Horizon), nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
