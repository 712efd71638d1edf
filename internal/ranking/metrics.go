package ranking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/personarank/internal/ranking"

// Metrics holds ranking pipeline instruments.
type Metrics struct {
	meter      metric.Meter
	logger     *zap.Logger
	duration   metric.Float64Histogram
	degraded   metric.Int64Counter
	candidates metric.Int64Histogram
}

// NewMetrics creates ranking instruments on meter.
func NewMetrics(meter metric.Meter, logger *zap.Logger) *Metrics {
	m := &Metrics{meter: meter, logger: logger}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"personarank.ranking.stage_duration_seconds",
		metric.WithDescription("Duration of each ranking stage in seconds, labeled by stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		m.logger.Warn("failed to create stage duration histogram", zap.Error(err))
	}

	m.degraded, err = m.meter.Int64Counter(
		"personarank.ranking.degraded_total",
		metric.WithDescription("Stage runs that fell back to a simpler signal, labeled by stage"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		m.logger.Warn("failed to create degraded counter", zap.Error(err))
	}

	m.candidates, err = m.meter.Int64Histogram(
		"personarank.ranking.candidates",
		metric.WithDescription("Sections reaching the reranker per request"),
		metric.WithUnit("{section}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 20, 50),
	)
	if err != nil {
		m.logger.Warn("failed to create candidates histogram", zap.Error(err))
	}
}

// RecordStage records a stage's latency and, if degraded, its fallback.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration, degraded bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), attrs)
	}
	if degraded && m.degraded != nil {
		m.degraded.Add(ctx, 1, attrs)
	}
}

// RecordCandidates records the reranking window size.
func (m *Metrics) RecordCandidates(ctx context.Context, n int) {
	if m == nil || m.candidates == nil {
		return
	}
	m.candidates.Record(ctx, int64(n))
}
