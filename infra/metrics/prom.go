package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/pvcast/core/metrics"
)

// PromConfig configures the Prometheus sink.
type PromConfig struct {
	// Textfile, when set, receives the gathered metrics on Close in the
	// node_exporter textfile format.
	Textfile string `json:"textfile"`
}

// PromSink records evaluation events in Prometheus metrics.
type PromSink struct {
	samples  *prometheus.CounterVec
	batches  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	duration *prometheus.GaugeVec
	mae      *prometheus.GaugeVec
	gatherer prometheus.Gatherer
	textfile string
}

// NewPromSink registers evaluation metrics on the default Prometheus registry.
// The HTTP endpoint should be started separately using StartPromServer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, nil)
}

// NewPromSinkWithRegistry registers metrics on the provided registry.
// A nil registry defaults to the global Prometheus registry.
func NewPromSinkWithRegistry(cfg PromConfig, reg *prometheus.Registry) (*PromSink, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	s := &PromSink{gatherer: gatherer, textfile: cfg.Textfile}
	var err error
	if s.samples, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pvcast_samples_total",
		Help: "Total number of samples forecast",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.batches, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pvcast_batches_total",
		Help: "Total number of prediction batches",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pvcast_batch_latency_seconds",
		Help:    "Time spent by the model on one batch",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.runs, err = register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pvcast_runs_total",
		Help: "Evaluation runs by outcome",
	}, []string{"mode", "status"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pvcast_run_duration_seconds",
		Help: "Duration of the last evaluation run",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if s.mae, err = register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pvcast_validation_mae",
		Help: "Mean absolute error of the last validation run",
	}, []string{"model"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c is a duplicate.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// RecordBatch counts the batch and observes the model latency.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.samples.WithLabelValues(ev.Mode).Add(float64(ev.Samples))
	s.batches.WithLabelValues(ev.Mode).Inc()
	s.latency.WithLabelValues(ev.Mode).Observe(ev.Latency.Seconds())
	return nil
}

// RecordRun counts the run outcome and, for validations, sets the MAE gauge.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Mode, ev.Status()).Inc()
	s.duration.WithLabelValues(ev.Mode).Set(ev.Duration.Seconds())
	if ev.MAE != nil {
		s.mae.WithLabelValues(ev.Model).Set(*ev.MAE)
	}
	return nil
}

// Close writes the textfile export when configured.
func (s *PromSink) Close() error {
	if s.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(s.textfile, s.gatherer)
}
