package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordTranscription(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}

	ctx := context.Background()
	m.RecordTranscription(ctx, "auto", "ok", 1.5)
	m.RecordTranscription(ctx, "command", "error", 0.2)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metr := range sm.Metrics {
			found[metr.Name] = true
		}
	}
	for _, name := range []string{"vmt.transcriptions", "vmt.transcription.duration"} {
		if !found[name] {
			t.Errorf("metric %q not collected", name)
		}
	}
}

func TestNewMetricsCreatesAllInstruments(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider()
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	if m.TranscriptionDuration == nil || m.Transcriptions == nil ||
		m.ProviderErrors == nil || m.ResolutionFailures == nil || m.ActiveJobs == nil {
		t.Fatal("NewMetrics() left an instrument nil")
	}
}
