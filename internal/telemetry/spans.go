package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
)

// SpanStat aggregates every ended span sharing a name.
type SpanStat struct {
	Name   string
	Count  int
	Errors int
	Total  time.Duration
}

// spanStats is a span processor that keeps per-name counts and durations
// in memory instead of exporting spans.
type spanStats struct {
	mu    sync.Mutex
	stats map[string]*SpanStat
}

var _ trace.SpanProcessor = (*spanStats)(nil)

func newSpanStats() *spanStats {
	return &spanStats{stats: map[string]*SpanStat{}}
}

func (s *spanStats) OnStart(context.Context, trace.ReadWriteSpan) {}

func (s *spanStats) OnEnd(span trace.ReadOnlySpan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stats[span.Name()]
	if !ok {
		st = &SpanStat{Name: span.Name()}
		s.stats[span.Name()] = st
	}
	st.Count++
	if span.Status().Code == codes.Error {
		st.Errors++
	}
	if d := span.EndTime().Sub(span.StartTime()); d > 0 {
		st.Total += d
	}
}

func (s *spanStats) Shutdown(context.Context) error   { return nil }
func (s *spanStats) ForceFlush(context.Context) error { return nil }

// snapshot returns a copy of the stats sorted by name.
func (s *spanStats) snapshot() []SpanStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SpanStat, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
