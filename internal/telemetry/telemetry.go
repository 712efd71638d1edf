package telemetry

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ErrDisabled is returned by Summary when telemetry is not collecting.
var ErrDisabled = errors.New("telemetry disabled")

// Telemetry provides tracers and meters for personarank components.
type Telemetry struct {
	tracerProvider oteltrace.TracerProvider
	meterProvider  metric.MeterProvider

	sdkTracer *trace.TracerProvider
	sdkMeter  *sdkmetric.MeterProvider
	reader    *sdkmetric.ManualReader
	spans     *spanStats
}

// New creates a Telemetry instance. With enabled false it hands out the
// global providers and holds no resources.
func New(enabled bool) *Telemetry {
	if !enabled {
		return &Telemetry{
			tracerProvider: otel.GetTracerProvider(),
			meterProvider:  otel.GetMeterProvider(),
		}
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := newSpanStats()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(spans))

	return &Telemetry{
		tracerProvider: tp,
		meterProvider:  mp,
		sdkTracer:      tp,
		sdkMeter:       mp,
		reader:         reader,
		spans:          spans,
	}
}

// Tracer returns a tracer from the active provider.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter from the active provider.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// Enabled reports whether SDK providers are collecting.
func (t *Telemetry) Enabled() bool {
	return t.reader != nil
}

// MetricValue is one aggregated series in a Summary.
type MetricValue struct {
	Name  string
	Value float64
}

// RunSummary is what a Telemetry instance has collected so far.
type RunSummary struct {
	Metrics []MetricValue
	Spans   []SpanStat
}

// Summary collects every metric and span recorded so far. Each metric is
// reduced to a single number: counters and up-down counters to their sum,
// histograms to their observation count and gauges to their last value.
// Spans are aggregated per name.
func (t *Telemetry) Summary(ctx context.Context) (RunSummary, error) {
	if t.reader == nil {
		return RunSummary{}, ErrDisabled
	}
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return RunSummary{}, err
	}
	sum := RunSummary{Metrics: summarize(rm)}
	if t.spans != nil {
		sum.Spans = t.spans.snapshot()
	}
	return sum, nil
}

func summarize(rm metricdata.ResourceMetrics) []MetricValue {
	totals := map[string]float64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += dp.Value
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += float64(dp.Count)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] += float64(dp.Count)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] = float64(dp.Value)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					totals[m.Name] = dp.Value
				}
			}
		}
	}

	out := make([]MetricValue, 0, len(totals))
	for name, v := range totals {
		out = append(out, MetricValue{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown flushes and releases SDK providers. Safe on a disabled instance.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.sdkTracer != nil {
		errs = append(errs, t.sdkTracer.Shutdown(ctx))
	}
	if t.sdkMeter != nil {
		errs = append(errs, t.sdkMeter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
