package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func metricNames(rm metricdata.ResourceMetrics) map[string]bool {
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.SynthesisDuration.Record(ctx, 0.42)
	m.RecordDispatch(ctx, "spoken")
	m.RecordDispatch(ctx, "dropped")
	m.RecordAnnouncement(ctx)
	m.ActiveSessions.Add(ctx, 1)

	names := metricNames(collect(t, reader))
	for _, want := range []string{
		"kanade.synthesis.duration",
		"kanade.dispatch.messages",
		"kanade.announcements",
		"kanade.active_sessions",
	} {
		if !names[want] {
			t.Errorf("metric %q not collected", want)
		}
	}
}

func TestDefaultMetricsIsSingleton(t *testing.T) {
	t.Parallel()
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different instances")
	}
}
