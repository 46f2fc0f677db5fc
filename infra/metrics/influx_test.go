package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/pvcast/core/metrics"
)

func captureServer(bodies *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*bodies = append(*bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSink_RecordBatch(t *testing.T) {
	var bodies []string
	srv := captureServer(&bodies)
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()
	now := time.Now()
	ev := coremetrics.BatchEvent{RunID: "r1", Mode: "live", Index: 2, Samples: 32, Latency: 1500 * time.Microsecond, Time: now}
	if err := sink.RecordBatch(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("pvcast_batch").
		AddTag("run_id", "r1").
		AddTag("mode", "live").
		AddField("index", 2).
		AddField("samples", 32).
		AddField("latency_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	var bodies []string
	srv := captureServer(&bodies)
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	now := time.Now()
	mae := 0.125
	ev := coremetrics.RunEvent{
		RunID: "r2", Mode: "validation", Model: "cnn", Samples: 10, Batches: 1,
		MAE: &mae, Duration: 2 * time.Second, Time: now,
	}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("pvcast_run").
		AddTag("run_id", "r2").
		AddTag("mode", "validation").
		AddTag("model", "cnn").
		AddTag("status", "ok").
		AddField("samples", 10).
		AddField("batches", 1).
		AddField("duration_s", 2.0).
		AddField("mae", 0.125).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("bodies: %#v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
