// Package observe provides observability primitives for voxnote: OpenTelemetry
// metric instruments for the voice-note pipeline and the SDK provider setup
// that bridges them to a Prometheus /metrics endpoint.
//
// Metrics are recorded through the OpenTelemetry Metrics API. Tests should use
// [NewMetrics] with a private [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxnote metrics.
const meterName = "github.com/voxnote/voxnote"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranscriptionDuration tracks speech-to-text latency per voice note.
	TranscriptionDuration metric.Float64Histogram

	// SummaryDuration tracks summarization latency per voice note.
	SummaryDuration metric.Float64Histogram

	// Transcriptions counts transcription attempts. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("status", ...)
	Transcriptions metric.Int64Counter

	// Summaries counts summarization attempts. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("status", ...)
	Summaries metric.Int64Counter

	// Replies counts outbound reply messages. Use with attribute:
	//   attribute.String("kind", "summary"|"transcript")
	Replies metric.Int64Counter

	// JobsInFlight tracks voice-note jobs currently being processed.
	JobsInFlight metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Provider
// round-trips for whole voice notes run well into the seconds, unlike
// streaming pipelines, so the upper buckets are generous.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("voxnote.transcription.duration",
		metric.WithDescription("Latency of voice-note transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SummaryDuration, err = m.Float64Histogram("voxnote.summary.duration",
		metric.WithDescription("Latency of transcript summarization."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Transcriptions, err = m.Int64Counter("voxnote.transcriptions",
		metric.WithDescription("Total transcription attempts by backend and status."),
	); err != nil {
		return nil, err
	}
	if met.Summaries, err = m.Int64Counter("voxnote.summaries",
		metric.WithDescription("Total summarization attempts by backend and status."),
	); err != nil {
		return nil, err
	}
	if met.Replies, err = m.Int64Counter("voxnote.replies",
		metric.WithDescription("Total outbound replies by kind."),
	); err != nil {
		return nil, err
	}

	if met.JobsInFlight, err = m.Int64UpDownCounter("voxnote.jobs.in_flight",
		metric.WithDescription("Voice-note jobs currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
