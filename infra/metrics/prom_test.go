package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/pvcast/core/metrics"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordBatch(coremetrics.BatchEvent{Mode: "live", Samples: 32, Latency: 10 * time.Millisecond}))
	require.NoError(t, sink.RecordBatch(coremetrics.BatchEvent{Mode: "live", Samples: 4, Latency: 2 * time.Millisecond}))
	mae := 0.1
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Mode: "validation", Model: "cnn", MAE: &mae, Duration: time.Second}))
	require.NoError(t, sink.RecordRun(coremetrics.RunEvent{Mode: "live", Error: "boom"}))

	assert.Equal(t, 36.0, testutil.ToFloat64(sink.samples.WithLabelValues("live")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.batches.WithLabelValues("live")))
	assert.Equal(t, 0.1, testutil.ToFloat64(sink.mae.WithLabelValues("cnn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs.WithLabelValues("live", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runs.WithLabelValues("validation", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.latency))
}

func TestPromSink_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(PromConfig{}, reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordBatch(coremetrics.BatchEvent{Mode: "validation", Samples: 3}))
	assert.Equal(t, 3.0, testutil.ToFloat64(first.samples.WithLabelValues("validation")))
}

func TestPromSink_Textfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvcast.prom")
	sink, err := NewPromSinkWithRegistry(PromConfig{Textfile: path}, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NoError(t, sink.RecordBatch(coremetrics.BatchEvent{Mode: "live", Samples: 5}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `pvcast_samples_total{mode="live"} 5`))
}
