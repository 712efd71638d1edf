package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

func TestNew_Disabled(t *testing.T) {
	tel := New(false)
	assert.False(t, tel.Enabled())

	_, err := tel.Summary(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_EnabledSummary(t *testing.T) {
	ctx := context.Background()
	tel := New(true)
	defer tel.Shutdown(ctx)
	require.True(t, tel.Enabled())

	meter := tel.Meter("test")
	counter, err := meter.Int64Counter("runs_total")
	require.NoError(t, err)
	hist, err := meter.Float64Histogram("latency_seconds")
	require.NoError(t, err)

	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("status", "ok")))
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "degraded")))
	hist.Record(ctx, 0.2)
	hist.Record(ctx, 0.4)

	summary, err := tel.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []MetricValue{
		{Name: "latency_seconds", Value: 2},
		{Name: "runs_total", Value: 3},
	}, summary.Metrics)
	assert.Empty(t, summary.Spans)
}

func TestNew_EnabledCollectsSpans(t *testing.T) {
	ctx := context.Background()
	tel := New(true)
	defer tel.Shutdown(ctx)

	tracer := tel.Tracer("test")
	for i := 0; i < 3; i++ {
		_, span := tracer.Start(ctx, "stage")
		if i == 2 {
			span.SetStatus(codes.Error, "fell back")
		}
		span.End()
	}
	_, span := tracer.Start(ctx, "run")
	span.End()

	summary, err := tel.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Spans, 2)
	assert.Equal(t, "run", summary.Spans[0].Name)
	assert.Equal(t, 1, summary.Spans[0].Count)

	stage := summary.Spans[1]
	assert.Equal(t, "stage", stage.Name)
	assert.Equal(t, 3, stage.Count)
	assert.Equal(t, 1, stage.Errors)
	assert.GreaterOrEqual(t, stage.Total, time.Duration(0))
}

func TestTestTelemetry_Spans(t *testing.T) {
	tt := NewTestTelemetry()

	_, span := tt.Tracer("test").Start(context.Background(), "stage")
	span.SetAttributes(attribute.Int("count", 3))
	span.End()

	tt.AssertSpanExists(t, "stage")
	tt.AssertSpanAttribute(t, "stage", "count", int64(3))
	assert.Nil(t, tt.SpanByName("missing"))
}
