package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/analyzer"
	"github.com/fyrsmithlabs/personarank/internal/config"
	"github.com/fyrsmithlabs/personarank/internal/extract"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/output"
	"github.com/fyrsmithlabs/personarank/internal/sanitize"
	"github.com/fyrsmithlabs/personarank/internal/telemetry"
)

// app holds the process-wide resources shared by every collection run.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	models    *analyzer.Models
	engine    *analyzer.Engine
	extractor extract.Extractor
	writer    *output.Writer
}

// collectionJob is one persona/job request over one input directory.
type collectionJob struct {
	Collection string `json:"collection"`
	Persona    string `json:"persona"`
	Job        string `json:"job"`

	inputDir  string
	outputDir string
}

// outputPath is <output>/<collection>/<file>, or <output>/<file> when no
// collection is named.
func (j collectionJob) outputPath(fileName string) string {
	if j.Collection == "" {
		return filepath.Join(j.outputDir, fileName)
	}
	return filepath.Join(j.outputDir, j.Collection, fileName)
}

func (j collectionJob) validate() (collectionJob, error) {
	if j.Persona == "" {
		return j, errors.New("persona is required")
	}
	if j.Job == "" {
		return j, errors.New("job is required")
	}
	if j.Collection != "" {
		name, err := sanitize.Collection(j.Collection)
		if err != nil {
			return j, err
		}
		j.Collection = name
	}
	return j, nil
}

// loadConfig reads configuration from the --config path, defaults and env.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}
	lc.Level = level
	lc.Format = cfg.Logging.Format
	lc.Fields["version"] = version
	return logging.NewLoggerWithWriter(lc, w)
}

// newApp loads models once and builds the engine shared by all runs.
func newApp(ctx context.Context, cfg *config.Config, logWriter io.Writer) (*app, error) {
	logger, err := newLogger(cfg, logWriter)
	if err != nil {
		return nil, err
	}

	tel := telemetry.New(cfg.Telemetry.Enabled)

	models, err := analyzer.LoadModels(ctx, cfg, logger)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	engine, err := analyzer.New(cfg, models.Embedder, models.Reranker, logger.Named("analyzer"),
		analyzer.WithTelemetry(tel))
	if err != nil {
		_ = models.Close()
		_ = tel.Shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		telemetry: tel,
		models:    models,
		engine:    engine,
		extractor: extract.NewAuto(logger.Named("extract")),
		writer:    output.NewWriter(),
	}, nil
}

// close logs the telemetry summary, then releases models and providers.
func (a *app) close(ctx context.Context) error {
	if a.telemetry.Enabled() {
		summary, err := a.telemetry.Summary(ctx)
		if err != nil {
			a.logger.Warn(ctx, "telemetry summary unavailable", zap.Error(err))
		}
		for _, m := range summary.Metrics {
			a.logger.Info(ctx, "metric", zap.String("name", m.Name), zap.Float64("value", m.Value))
		}
		for _, sp := range summary.Spans {
			a.logger.Info(ctx, "span",
				zap.String("name", sp.Name),
				zap.Int("count", sp.Count),
				zap.Int("errors", sp.Errors),
				zap.Duration("total", sp.Total))
		}
	}
	err := errors.Join(a.models.Close(), a.telemetry.Shutdown(ctx))
	_ = a.logger.Sync()
	return err
}

// run processes one collection and returns the path of the written record.
func (a *app) run(ctx context.Context, job collectionJob) (string, error) {
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	ctx = logging.WithCollection(ctx, job.Collection)
	start := time.Now()

	docs, err := extract.LoadDocuments(logging.WithLogger(ctx, a.logger), a.extractor, job.inputDir)
	if err != nil {
		return "", err
	}

	res, err := a.engine.Analyze(ctx, docs, job.Persona, job.Job)
	if err != nil {
		return "", err
	}

	path := job.outputPath(a.cfg.Output.FileName)
	if err := a.writer.Write(ctx, res.Record, path); err != nil {
		return "", err
	}

	a.logger.Info(ctx, "result written",
		zap.String("path", path),
		zap.Int("documents", len(docs)),
		zap.Int("sections", len(res.Record.ExtractedSections)),
		zap.Bool("degraded", res.Degraded()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return path, nil
}
