// Package observe provides application-wide observability primitives
// for VMT: OpenTelemetry metrics with a Prometheus exporter bridge and
// the HTTP listener that serves /metrics plus health probes.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// package-level default [Metrics] instance ([Default]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all VMT metrics.
const meterName = "github.com/Frenzie/vmt"

// latencyBuckets defines histogram bucket boundaries (in seconds) for
// transcription latencies — whisper on a short voice note lands in the
// low seconds, API round-trips below one.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// Metrics holds all OpenTelemetry metric instruments for the bot.
// All fields are safe for concurrent use — the underlying OTel types
// handle their own synchronisation.
type Metrics struct {
	// TranscriptionDuration tracks end-to-end transcription latency
	// (download, decode, engine, translation). Use with attributes:
	//   attribute.String("trigger", "command"|"auto"|"slash")
	TranscriptionDuration metric.Float64Histogram

	// Transcriptions counts transcription requests. Use with attributes:
	//   attribute.String("trigger", ...), attribute.String("status", "ok"|"empty"|"error")
	Transcriptions metric.Int64Counter

	// ProviderErrors counts provider failures. Use with attributes:
	//   attribute.String("kind", "stt"|"translate")
	ProviderErrors metric.Int64Counter

	// ResolutionFailures counts command invocations that found no voice
	// note. Use with attribute:
	//   attribute.String("reason", "reply_rejected"|"history_exhausted")
	ResolutionFailures metric.Int64Counter

	// ActiveJobs tracks the number of transcriptions currently running.
	ActiveJobs metric.Int64UpDownCounter
}

// NewMetrics creates all metric instruments on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	m := &Metrics{}
	var err error

	m.TranscriptionDuration, err = meter.Float64Histogram(
		"vmt.transcription.duration",
		metric.WithDescription("End-to-end voice message transcription latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	m.Transcriptions, err = meter.Int64Counter(
		"vmt.transcriptions",
		metric.WithDescription("Transcription requests by trigger and status"),
	)
	if err != nil {
		return nil, err
	}

	m.ProviderErrors, err = meter.Int64Counter(
		"vmt.provider.errors",
		metric.WithDescription("Provider failures by kind"),
	)
	if err != nil {
		return nil, err
	}

	m.ResolutionFailures, err = meter.Int64Counter(
		"vmt.resolution.failures",
		metric.WithDescription("Invocations that found no voice message"),
	)
	if err != nil {
		return nil, err
	}

	m.ActiveJobs, err = meter.Int64UpDownCounter(
		"vmt.jobs.active",
		metric.WithDescription("Transcriptions currently in flight"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide Metrics instance backed by the
// global OTel meter provider. Instruments are created lazily on first
// use so that [InitProvider] can run first.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			// Creation only fails on malformed instrument names, which
			// are compile-time constants here.
			panic(err)
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordTranscription records one finished transcription attempt.
func (m *Metrics) RecordTranscription(ctx context.Context, trigger, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("status", status),
	)
	m.Transcriptions.Add(ctx, 1, attrs)
	m.TranscriptionDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("trigger", trigger),
	))
}
