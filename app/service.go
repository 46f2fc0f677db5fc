package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kilianp07/pvcast/app/plugins"
	"github.com/kilianp07/pvcast/config"
	"github.com/kilianp07/pvcast/core/evaluation"
	"github.com/kilianp07/pvcast/core/feature"
	coremetrics "github.com/kilianp07/pvcast/core/metrics"
	"github.com/kilianp07/pvcast/core/prediction"
	"github.com/kilianp07/pvcast/core/stream"
	"github.com/kilianp07/pvcast/infra/hdf5"
	"github.com/kilianp07/pvcast/infra/logger"
	"github.com/kilianp07/pvcast/infra/metrics"
	"github.com/kilianp07/pvcast/infra/runlog"
)

// Opener opens a feature container. The returned func releases it.
type Opener func(path string) (feature.Set, func() error, error)

// Service runs the predictor in live or validation mode.
type Service struct {
	cfg      *config.Config
	model    prediction.Model
	sink     coremetrics.MetricsSink
	history  runlog.Store
	open     Opener
	log      logger.Logger
	stopProm context.CancelFunc
}

// Option customises a Service.
type Option func(*Service)

// WithModel replaces the configured predictor.
func WithModel(m prediction.Model) Option { return func(s *Service) { s.model = m } }

// WithOpener replaces the HDF5 feature reader.
func WithOpener(o Opener) Option { return func(s *Service) { s.open = o } }

// WithHistory replaces the configured run history store.
func WithHistory(h runlog.Store) Option { return func(s *Service) { s.history = h } }

// WithMetrics replaces the configured metrics sinks.
func WithMetrics(m coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = m } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// New creates a Service from the configuration. The predictor is built but
// not set up; setup happens at the start of each run.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, open: hdf5.OpenSet}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if s.model == nil {
		m, err := plugins.NewPredictor(cfg.Evaluator.Predictor)
		if err != nil {
			return nil, err
		}
		s.model = m
	}
	if s.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		s.sink = sink
	}
	if s.history == nil {
		h, err := plugins.NewHistory(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		s.history = h
	}
	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopProm = cancel
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	return s, nil
}

func (s *Service) evaluator(ctx context.Context) (*evaluation.Evaluator, error) {
	return evaluation.New(ctx, s.model, evaluation.Options{
		BatchSize: s.cfg.Evaluator.BatchSize,
		Device:    s.cfg.Evaluator.Device,
		Delimiter: s.cfg.Stream.Delimiter,
		Logger:    s.log,
		Metrics:   s.sink,
	})
}

// SinkPath returns the file live runs stream to.
func (s *Service) SinkPath() string {
	return filepath.Join(s.cfg.Stream.Dir(), s.cfg.Stream.File)
}

// RunLive sets the model up, opens the sink, writes the readiness line and
// only then opens input to stream predictions for it.
func (s *Service) RunLive(ctx context.Context, input string) (err error) {
	ev, err := s.evaluator(ctx)
	if err != nil {
		return err
	}
	path := s.SinkPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close sink: %w", cerr)
		}
	}()
	s.log.Infof("streaming %s to %s", input, path)
	sum, err := ev.StreamFrom(ctx, func() (feature.Set, func() error, error) {
		return s.open(input)
	}, f)
	s.record(ctx, sum, input, nil, err)
	return err
}

// RunValidation scores the model against the local validation data and
// prints "MAE: <value>" to out. A missing data file is reported on out and
// is not an error.
func (s *Service) RunValidation(ctx context.Context, out io.Writer) error {
	path := s.cfg.Validation.DataPath
	set, closeSet, err := s.open(path)
	if errors.Is(err, feature.ErrInputNotFound) {
		_, err = fmt.Fprintf(out, "Unable to load features at `%s`\n", path)
		return err
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSet(); err != nil {
			s.log.Warnf("close %s: %v", path, err)
		}
	}()
	ev, err := s.evaluator(ctx)
	if err != nil {
		return err
	}
	res, err := ev.Validate(ctx, set, s.cfg.Validation.Targets)
	var mae *float64
	if err == nil {
		mae = &res.MAE
	}
	s.record(ctx, res.Summary, path, mae, err)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "MAE: %s\n", stream.FormatValue(res.MAE))
	return err
}

// History returns recorded runs, newest first.
func (s *Service) History(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return s.history.Query(ctx, q)
}

func (s *Service) record(ctx context.Context, sum evaluation.Summary, input string, mae *float64, runErr error) {
	rec := runlog.Record{
		ID:        sum.RunID,
		Mode:      sum.Mode,
		Model:     sum.Model,
		Input:     input,
		Samples:   sum.Samples,
		Batches:   sum.Batches,
		MAE:       mae,
		StartedAt: sum.StartedAt.UTC(),
		Duration:  sum.Duration.Round(time.Millisecond),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.log.Warnf("record run %s: %v", rec.ID, err)
	}
}

// Close releases the metrics sinks and the history store.
func (s *Service) Close() error {
	if s.stopProm != nil {
		s.stopProm()
	}
	var errs []error
	if c, ok := s.sink.(coremetrics.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, s.history.Close())
	return errors.Join(errs...)
}
