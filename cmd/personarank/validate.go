package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/personarank/internal/output"
)

var repairInPlace bool

func init() {
	validateCmd.Flags().BoolVar(&repairInPlace, "repair", false, "repair an invalid file in place")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <result.json>",
	Short: "Validate a result file against the record schema",
	Long: `Validate a result file against the record schema and list every problem.

With --repair an invalid file is repaired and rewritten atomically.

Examples:
  personarank validate output/collection1/result.json
  personarank validate --repair output/collection1/result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	path := args[0]
	out := cmd.OutOrStdout()

	doc, err := output.Load(path)
	if err != nil {
		return err
	}

	valid, errs := output.Validate(doc)
	if valid {
		fmt.Fprintf(out, "%s: valid\n", path)
		return nil
	}

	fmt.Fprintf(out, "%s: %d problem(s)\n", path, len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	if !repairInPlace {
		return fmt.Errorf("%s is not a valid result record", path)
	}

	fixed, fixes := output.Repair(doc)
	if err := output.NewWriter().WriteDocument(ctx, fixed, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: repaired (%d fix(es))\n", path, len(fixes))
	for _, f := range fixes {
		fmt.Fprintf(out, "  * %s\n", f)
	}
	return nil
}
