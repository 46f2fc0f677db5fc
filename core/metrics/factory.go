package metrics

import (
	"fmt"

	"github.com/kilianp07/pvcast/core/factory"
)

var sinks = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string { return sinks.Names() }

// NewMetricsSink builds every configured sink. No sink yields a NopSink and
// several are combined in a MultiSink. Sinks already built are closed when a
// later one fails.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	built := make([]MetricsSink, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			_ = NewMultiSink(built...).Close()
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		built = append(built, s)
	}
	switch len(built) {
	case 0:
		return NopSink{}, nil
	case 1:
		return built[0], nil
	}
	return NewMultiSink(built...), nil
}
