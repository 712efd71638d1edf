package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxBatchFileSize bounds the batch definition file.
const maxBatchFileSize = 1 << 20

var batchFlags struct {
	file      string
	inputRoot string
	output    string
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.file, "file", "", "JSON file listing collections (required)")
	f.StringVar(&batchFlags.inputRoot, "input-root", "input", "directory holding one sub-directory per collection")
	f.StringVar(&batchFlags.output, "output", "output", "output root directory")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Rank several collections concurrently",
	Long: `Rank several document collections with one set of loaded models.

The batch file is a JSON array of collections:

  [
    {"collection": "collection1", "persona": "Travel Planner",
     "job": "Plan a trip of 4 days for a group of 10 college friends."},
    {"collection": "collection2", "persona": "HR Professional",
     "job": "Create and manage fillable forms for onboarding and compliance."}
  ]

Each collection reads <input-root>/<collection>/ and writes
<output>/<collection>/result.json. Up to batch.concurrency collections run
at once. A failing collection does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

// readBatchFile parses and validates the batch definition.
func readBatchFile(path, inputRoot, outputRoot string) ([]collectionJob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}
	if info.Size() > maxBatchFileSize {
		return nil, fmt.Errorf("batch file %s exceeds %d bytes", path, maxBatchFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading batch file: %w", err)
	}

	var jobs []collectionJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parsing batch file %s: %w", path, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("batch file %s lists no collections", path)
	}

	seen := make(map[string]struct{}, len(jobs))
	for i, j := range jobs {
		if j.Collection == "" {
			return nil, fmt.Errorf("batch entry %d: collection is required", i)
		}
		j, err = j.validate()
		if err != nil {
			return nil, fmt.Errorf("batch entry %d: %w", i, err)
		}
		if _, dup := seen[j.Collection]; dup {
			return nil, fmt.Errorf("batch entry %d: duplicate collection %q", i, j.Collection)
		}
		seen[j.Collection] = struct{}{}
		j.inputDir = filepath.Join(inputRoot, j.Collection)
		j.outputDir = outputRoot
		jobs[i] = j
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobs, err := readBatchFile(batchFlags.file, batchFlags.inputRoot, batchFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = a.close(context.WithoutCancel(ctx)) }()

	return a.runAll(ctx, jobs, func(job collectionJob, path string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: result written to %s\n", job.Collection, path)
	})
}

// runAll runs jobs with bounded concurrency. Every job runs even if others
// fail; the returned error joins all failures.
func (a *app) runAll(ctx context.Context, jobs []collectionJob, done func(collectionJob, string)) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(a.cfg.Batch.Concurrency)

	for _, job := range jobs {
		g.Go(func() error {
			path, err := a.run(ctx, job)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Error(ctx, "collection failed",
					zap.String("collection", job.Collection),
					zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", job.Collection, err))
				return nil
			}
			done(job, path)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d collections failed: %w", len(errs), len(jobs), errors.Join(errs...))
	}
	return nil
}
