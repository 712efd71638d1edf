// Package analyzer runs one ranking request end to end: corpus building,
// query construction, the ranking pipeline, refinement, output assembly
// and validation.
//
// An Engine is the process-wide model context. Build it once with New and
// share it across concurrent requests.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/config"
	"github.com/fyrsmithlabs/personarank/internal/corpus"
	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/output"
	"github.com/fyrsmithlabs/personarank/internal/query"
	"github.com/fyrsmithlabs/personarank/internal/ranking"
	"github.com/fyrsmithlabs/personarank/internal/refine"
	"github.com/fyrsmithlabs/personarank/internal/reranker"
	"github.com/fyrsmithlabs/personarank/internal/telemetry"
)

const instrumentationName = "github.com/fyrsmithlabs/personarank/internal/analyzer"

// Engine ranks document collections for a persona and job.
type Engine struct {
	pipeline      *ranking.Pipeline
	refine        refine.Options
	includeScores bool
	logger        *logging.Logger
	now           func() time.Time
}

// Result is the outcome of one Analyze call.
type Result struct {
	// Record is always schema-valid.
	Record *output.Record
	Report output.Report
	// Diagnostics holds the outcome of each model-backed ranking stage.
	Diagnostics []ranking.Outcome
}

// Degraded reports whether any ranking stage fell back.
func (r Result) Degraded() bool {
	for _, o := range r.Diagnostics {
		if o.Degraded() {
			return true
		}
	}
	return false
}

type options struct {
	telemetry *telemetry.Telemetry
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*options)

// WithTelemetry routes pipeline spans and metrics to t.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *options) { o.telemetry = t }
}

// WithClock overrides the processing timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds an engine. When cfg.Inference.Serialize is set, every model
// call made through the engine holds one shared lock.
func New(cfg *config.Config, emb embeddings.Embedder, rr reranker.Reranker, logger *logging.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.telemetry == nil {
		o.telemetry = telemetry.New(false)
	}

	if cfg.Inference.Serialize {
		emb, rr = serialize(emb, rr)
	}

	pipeline, err := ranking.NewPipeline(cfg.Ranking.Params(), emb, rr,
		ranking.WithLogger(logger.Named("ranking")),
		ranking.WithTracer(o.telemetry.Tracer(instrumentationName)),
		ranking.WithMeter(o.telemetry.Meter(instrumentationName)),
	)
	if err != nil {
		return nil, err
	}

	return &Engine{
		pipeline:      pipeline,
		refine:        RefineOptions(cfg.Refine),
		includeScores: cfg.Output.IncludeScores,
		logger:        logger,
		now:           o.now,
	}, nil
}

// RefineOptions converts the refine configuration.
func RefineOptions(c config.RefineConfig) refine.Options {
	return refine.Options{
		MinSentenceLength: c.MinSentenceLength,
		MaxSentences:      c.MaxSentences,
		MinRefinedLength:  c.MinRefinedLength,
	}
}

// Analyze ranks the sections of docs for persona and job and returns a
// validated record. Model failures degrade the affected stage and are
// reported in Result.Diagnostics; only a done ctx is an error.
func (e *Engine) Analyze(ctx context.Context, docs []corpus.Document, persona, job string) (Result, error) {
	start := time.Now()

	sections := corpus.Build(docs)
	q := query.Build(persona, job)

	e.logger.Debug(ctx, "query built",
		zap.Int("sections", len(sections)),
		zap.Strings("keywords", q.Keywords),
		zap.Strings("triggers", q.Triggers),
	)

	ranked, err := e.pipeline.Run(ctx, q, sections)
	if err != nil {
		return Result{}, err
	}

	selected := make([]output.Selected, 0, len(ranked.Ranked))
	for _, r := range ranked.Ranked {
		selected = append(selected, output.Selected{
			Document:    r.Document,
			Title:       r.Title,
			PageNumber:  r.PageNumber,
			Score:       r.Final,
			RefinedText: refine.Section(r.Section, e.refine),
		})
	}

	rec := output.Assemble(output.Input{
		Documents:     corpus.Names(docs),
		Persona:       persona,
		Job:           job,
		Selected:      selected,
		Sections:      len(sections),
		Candidates:    len(ranked.Retrieval.Window),
		IncludeScores: e.includeScores,
		Now:           e.now(),
	})

	rec, report := output.ValidateAndRepair(rec)
	if report.Repaired {
		for _, fix := range report.Fixes {
			e.logger.Warn(ctx, "result record repaired", zap.String("fix", fix))
		}
	}
	if !report.Valid && !report.Repaired {
		e.logger.Warn(ctx, "result record invalid", zap.Strings("errors", report.Errors))
	}

	res := Result{
		Record:      rec,
		Report:      report,
		Diagnostics: ranked.Outcomes(),
	}

	e.logger.Info(ctx, "analysis completed",
		zap.Int("documents", len(docs)),
		zap.Int("sections", len(sections)),
		zap.Int("candidates", len(ranked.Retrieval.Window)),
		zap.Int("extracted", len(rec.ExtractedSections)),
		zap.Bool("degraded", res.Degraded()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
