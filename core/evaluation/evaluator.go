package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/pvcast/core/batch"
	"github.com/kilianp07/pvcast/core/feature"
	"github.com/kilianp07/pvcast/core/logger"
	"github.com/kilianp07/pvcast/core/metrics"
	"github.com/kilianp07/pvcast/core/model"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/core/stream"
)

// Run modes reported in metrics and summaries.
const (
	ModeLive       = "live"
	ModeValidation = "validation"
)

// DefaultTargets is the target series read by validation runs.
const DefaultTargets = "targets"

// Options configures an Evaluator.
type Options struct {
	BatchSize int
	Device    string
	Delimiter string
	Logger    logger.Logger
	Metrics   metrics.MetricsSink
}

// Evaluator owns a prepared model and runs it over feature sets.
type Evaluator struct {
	model     prediction.Model
	name      string
	batchSize int
	delimiter string
	log       logger.Logger
	sink      metrics.MetricsSink
}

// New resolves the device and sets the model up. Setup runs exactly once per
// Evaluator; its failure is fatal and wrapped with prediction.ErrSetup.
func New(ctx context.Context, m prediction.Model, opts Options) (*Evaluator, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.NopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	device, err := prediction.ResolveDevice(opts.Device)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := m.Setup(ctx, prediction.SetupOptions{Device: device, Logger: opts.Logger}); err != nil {
		if !errors.Is(err, prediction.ErrSetup) {
			err = fmt.Errorf("%w: %w", prediction.ErrSetup, err)
		}
		return nil, err
	}
	e := &Evaluator{
		model:     m,
		name:      prediction.NameOf(m),
		batchSize: opts.BatchSize,
		delimiter: opts.Delimiter,
		log:       opts.Logger,
		sink:      opts.Metrics,
	}
	e.log.Infof("model %s ready on %s in %s", e.name, device, time.Since(start).Round(time.Millisecond))
	return e, nil
}

// ModelName returns the name of the wrapped model.
func (e *Evaluator) ModelName() string { return e.name }

// Predict validates the model's variables against set and returns a lazy
// iterator over prediction batches. Nothing is read until Next is called.
func (e *Evaluator) Predict(ctx context.Context, set feature.Set) (*Predictions, error) {
	b, err := batch.New(set, e.model.Variables(), e.batchSize)
	if err != nil {
		return nil, err
	}
	return &Predictions{ctx: ctx, e: e, it: b.Iter(), total: b.Count()}, nil
}

// Predictions iterates over batches of model output in sample order.
type Predictions struct {
	ctx   context.Context
	e     *Evaluator
	it    *batch.Iterator
	cur   []model.Prediction
	err   error
	index int
	total int
	mode  string
	runID string
}

// Next runs the model on the following batch.
func (p *Predictions) Next() bool {
	if p.err != nil {
		return false
	}
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return false
	}
	if !p.it.Next() {
		p.err = p.it.Err()
		return false
	}
	in := p.it.Batch()
	start := time.Now()
	out, err := p.e.model.PredictBatch(p.ctx, in)
	if err != nil {
		p.err = fmt.Errorf("predict batch %d: %w", p.index, err)
		return false
	}
	if len(out) != in.Size() {
		p.err = fmt.Errorf("predict batch %d: %w: %d predictions for %d samples", p.index, stream.ErrShape, len(out), in.Size())
		return false
	}
	latency := time.Since(start)
	if p.mode != "" {
		if err := p.e.sink.RecordBatch(metrics.BatchEvent{
			RunID: p.runID, Mode: p.mode, Index: p.index, Samples: len(out), Latency: latency, Time: time.Now(),
		}); err != nil {
			p.e.log.Warnf("record batch: %v", err)
		}
	}
	p.e.log.Debugw("batch predicted", map[string]any{"index": p.index, "offset": in.Offset, "samples": len(out), "latency_ms": latency.Milliseconds()})
	p.cur = out
	p.index++
	return true
}

// Batch returns the predictions produced by the last successful Next.
func (p *Predictions) Batch() []model.Prediction { return p.cur }

// Err returns the error that stopped iteration, if any.
func (p *Predictions) Err() error { return p.err }

// Total returns the number of batches a full pass yields.
func (p *Predictions) Total() int { return p.total }

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Mode      string
	Model     string
	Samples   int
	Batches   int
	StartedAt time.Time
	Duration  time.Duration
}

// Result is the outcome of a validation run.
type Result struct {
	Summary
	MAE float64
}

// Source opens the feature set of a run. The returned func releases it.
type Source func() (feature.Set, func() error, error)

// Stream writes the readiness line to w, then every batch of predictions,
// flushing after each batch. It stops at the first error; batches already
// written stay on the sink.
func (e *Evaluator) Stream(ctx context.Context, set feature.Set, w io.Writer) (Summary, error) {
	return e.StreamFrom(ctx, func() (feature.Set, func() error, error) {
		return set, func() error { return nil }, nil
	}, w)
}

// StreamFrom is Stream with the feature set opened only after the readiness
// line has been flushed.
func (e *Evaluator) StreamFrom(ctx context.Context, open Source, w io.Writer) (Summary, error) {
	sum := e.newSummary(ModeLive)
	sw := stream.NewWriter(w, stream.WithDelimiter(e.delimiter))
	if err := sw.Ready(); err != nil {
		return sum, e.finish(&sum, nil, err)
	}
	set, closeSet, err := open()
	if err != nil {
		return sum, e.finish(&sum, nil, err)
	}
	defer func() {
		if err := closeSet(); err != nil {
			e.log.Warnf("close features: %v", err)
		}
	}()
	preds, err := e.Predict(ctx, set)
	if err != nil {
		return sum, e.finish(&sum, nil, err)
	}
	preds.mode, preds.runID = ModeLive, sum.RunID
	for preds.Next() {
		if err := sw.WriteBatch(preds.Batch()); err != nil {
			return sum, e.finish(&sum, nil, fmt.Errorf("batch %d: %w", sum.Batches, err))
		}
		sum.Batches++
		sum.Samples += len(preds.Batch())
	}
	return sum, e.finish(&sum, nil, preds.Err())
}

// Validate accumulates every prediction and compares them with the targets
// series of set.
func (e *Evaluator) Validate(ctx context.Context, set feature.Set, targets string) (Result, error) {
	if targets == "" {
		targets = DefaultTargets
	}
	res := Result{Summary: e.newSummary(ModeValidation)}
	preds, err := e.Predict(ctx, set)
	if err != nil {
		return res, e.finish(&res.Summary, nil, err)
	}
	preds.mode, preds.runID = ModeValidation, res.RunID
	var all []model.Prediction
	for preds.Next() {
		b := preds.Batch()
		if err := stream.CheckShapes(b); err != nil {
			return res, e.finish(&res.Summary, nil, fmt.Errorf("batch %d: %w", res.Batches, err))
		}
		all = append(all, b...)
		res.Batches++
		res.Samples += len(b)
	}
	if err := preds.Err(); err != nil {
		return res, e.finish(&res.Summary, nil, err)
	}
	if !set.Has(targets) {
		return res, e.finish(&res.Summary, nil, &batch.MissingVariableError{Name: targets})
	}
	want, err := feature.ReadAll(set, targets)
	if err != nil {
		return res, e.finish(&res.Summary, nil, fmt.Errorf("read %s: %w", targets, err))
	}
	mae, err := MAE(want, all)
	if err != nil {
		return res, e.finish(&res.Summary, nil, err)
	}
	res.MAE = mae
	return res, e.finish(&res.Summary, &mae, nil)
}

func (e *Evaluator) newSummary(mode string) Summary {
	return Summary{RunID: uuid.NewString(), Mode: mode, Model: e.name, StartedAt: time.Now()}
}

// finish stamps the duration, reports the run and returns runErr unchanged.
func (e *Evaluator) finish(sum *Summary, mae *float64, runErr error) error {
	sum.Duration = time.Since(sum.StartedAt)
	ev := metrics.RunEvent{
		RunID:    sum.RunID,
		Mode:     sum.Mode,
		Model:    sum.Model,
		Samples:  sum.Samples,
		Batches:  sum.Batches,
		MAE:      mae,
		Duration: sum.Duration,
		Time:     time.Now(),
	}
	if runErr != nil {
		ev.Error = runErr.Error()
		e.log.Errorf("%s run %s failed after %d batches: %v", sum.Mode, sum.RunID, sum.Batches, runErr)
	} else {
		e.log.Infof("%s run %s done: %d samples in %d batches (%s)", sum.Mode, sum.RunID, sum.Samples, sum.Batches, sum.Duration.Round(time.Millisecond))
	}
	if err := e.sink.RecordRun(ev); err != nil {
		e.log.Warnf("record run: %v", err)
	}
	return runErr
}
