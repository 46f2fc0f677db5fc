package metrics

import "time"

// BatchEvent describes one batch of predictions.
type BatchEvent struct {
	RunID   string
	Mode    string
	Index   int
	Samples int
	Latency time.Duration
	Time    time.Time
}

// RunEvent describes a finished evaluation run. MAE is nil for live runs and
// failed validations.
type RunEvent struct {
	RunID    string
	Mode     string
	Model    string
	Samples  int
	Batches  int
	MAE      *float64
	Duration time.Duration
	Error    string
	Time     time.Time
}

// Status returns "ok" or "error".
func (e RunEvent) Status() string {
	if e.Error != "" {
		return "error"
	}
	return "ok"
}

// MetricsSink records evaluation events for observability purposes.
type MetricsSink interface {
	RecordBatch(ev BatchEvent) error
	RecordRun(ev RunEvent) error
}

// Closer is implemented by sinks holding resources or exporting on shutdown.
type Closer interface {
	Close() error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordBatch(BatchEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error     { return nil }
