// Package metrics defines the sinks that observe evaluation runs. Sinks like
// PromSink and InfluxSink (in infra/metrics) record per-batch throughput and
// per-run outcomes, and can be combined with NewMultiSink. NewMetricsSink
// returns a MultiSink automatically when several sinks are configured.
package metrics
