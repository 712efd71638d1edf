package ranking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/query"
	"github.com/fyrsmithlabs/personarank/internal/reranker"
)

// Pipeline runs all four stages with tracing, metrics and logging.
// It is safe for concurrent use if its embedder and reranker are.
type Pipeline struct {
	params   Params
	embedder embeddings.Embedder
	reranker reranker.Reranker
	tracer   trace.Tracer
	meter    metric.Meter
	metrics  *Metrics
	logger   *logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithMeter sets the meter used for stage metrics.
func WithMeter(m metric.Meter) Option {
	return func(p *Pipeline) { p.meter = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline validates params and builds a pipeline. A nil embedder or
// reranker is allowed; the affected stage always degrades.
func NewPipeline(params Params, emb embeddings.Embedder, rr reranker.Reranker, opts ...Option) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		params:   params,
		embedder: emb,
		reranker: rr,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(instrumentationName)
	}
	if p.meter == nil {
		p.meter = otel.Meter(instrumentationName)
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	p.metrics = NewMetrics(p.meter, p.logger.Underlying())
	return p, nil
}

// Params returns the pipeline parameters.
func (p *Pipeline) Params() Params {
	return p.params
}

// Result is the output of every stage for one request.
type Result struct {
	Retrieval RetrievalResult
	Rerank    RerankResult
	Adjusted  []Adjusted
	Ranked    []Ranked
}

// Outcomes returns the outcome of each model-backed stage in run order.
func (r Result) Outcomes() []Outcome {
	return []Outcome{r.Retrieval.Outcome, r.Rerank.Outcome}
}

// Degraded reports whether any stage fell back.
func (r Result) Degraded() bool {
	for _, o := range r.Outcomes() {
		if o.Degraded() {
			return true
		}
	}
	return false
}

// Run ranks sections against q. It only fails when ctx is done, in which
// case no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, q query.Query, sections []corpus.Section) (Result, error) {
	ctx, span := p.tracer.Start(ctx, "ranking.Run", trace.WithAttributes(
		attribute.Int("sections", len(sections)),
		attribute.Int("keywords", len(q.Keywords)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Result{}, p.fail(span, err)
	}

	var res Result

	p.stage(ctx, StageRetrieve, func(ctx context.Context) Outcome {
		res.Retrieval = Retrieve(ctx, p.embedder, q, sections, p.params.Window)
		return res.Retrieval.Outcome
	})
	p.metrics.RecordCandidates(ctx, len(res.Retrieval.Window))

	p.stage(ctx, StageRerank, func(ctx context.Context) Outcome {
		res.Rerank = Rerank(ctx, p.reranker, q, res.Retrieval, p.params.SimilarityWeight, p.params.RerankWeight)
		return res.Rerank.Outcome
	})

	if err := ctx.Err(); err != nil {
		return Result{}, p.fail(span, err)
	}

	p.stage(ctx, StageAdjust, func(context.Context) Outcome {
		res.Adjusted = Adjust(q, res.Rerank.Sections, p.params)
		return okOutcome(StageAdjust)
	})
	p.stage(ctx, StageSelect, func(context.Context) Outcome {
		res.Ranked = Select(res.Adjusted, p.params.TopK)
		return okOutcome(StageSelect)
	})

	span.SetAttributes(
		attribute.Int("candidates", len(res.Retrieval.Window)),
		attribute.Int("selected", len(res.Ranked)),
		attribute.Bool("degraded", res.Degraded()),
	)
	return res, nil
}

// stage runs fn in its own span and records its latency and outcome.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) Outcome) {
	ctx, span := p.tracer.Start(ctx, "ranking."+name)
	defer span.End()

	start := time.Now()
	outcome := fn(ctx)
	elapsed := time.Since(start)

	p.metrics.RecordStage(ctx, name, elapsed, outcome.Degraded())
	span.SetAttributes(attribute.String("status", outcome.Status.String()))

	if outcome.Degraded() {
		span.SetStatus(codes.Error, outcome.Reason)
		p.logger.Warn(ctx, "ranking stage degraded",
			zap.String("stage", name),
			zap.String("reason", outcome.Reason))
		return
	}
	p.logger.Debug(ctx, "ranking stage completed",
		zap.String("stage", name),
		zap.Duration("elapsed", elapsed))
}

func (p *Pipeline) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("ranking canceled: %w", err)
}
