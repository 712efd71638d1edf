package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rankFlags struct {
	input      string
	output     string
	persona    string
	job        string
	collection string
}

func init() {
	f := rankCmd.Flags()
	f.StringVar(&rankFlags.input, "input", "input", "directory holding the collection's PDF or JSON files")
	f.StringVar(&rankFlags.output, "output", "output", "output root directory")
	f.StringVar(&rankFlags.persona, "persona", "", "persona description (required)")
	f.StringVar(&rankFlags.job, "job", "", "job to be done (required)")
	f.StringVar(&rankFlags.collection, "collection", "", "collection name; results go to <output>/<collection>/")
	_ = rankCmd.MarkFlagRequired("persona")
	_ = rankCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(rankCmd)
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the sections of one document collection",
	Long: `Rank the sections of every PDF or pre-extracted JSON file in the input
directory for a persona and job, and write the result record.

Files are processed in name order. With --collection the record is written
to <output>/<collection>/result.json, otherwise to <output>/result.json.

Examples:
  # Rank a travel collection
  personarank rank --input input/collection1 --collection collection1 \
    --persona "Travel Planner" \
    --job "Plan a trip of 4 days for a group of 10 college friends."

  # Use a specific config file
  personarank rank --config ./personarank.yaml --persona "HR Professional" \
    --job "Create and manage fillable forms for onboarding and compliance."`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	job, err := collectionJob{
		Collection: rankFlags.collection,
		Persona:    rankFlags.persona,
		Job:        rankFlags.job,
		inputDir:   rankFlags.input,
		outputDir:  rankFlags.output,
	}.validate()
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

	path, err := a.run(ctx, job)
	if err != nil {
		return fmt.Errorf("ranking %s: %w", job.inputDir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Result written to %s\n", path)
	return nil
}
