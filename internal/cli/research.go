package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xaenox/legal-assistant/internal/models"
)

var researchQuery models.ResearchQuery

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Search case law and stream results as NDJSON",
	Long: `Run a case-law research session on the workflow platform. Every case
is printed as one JSON line as soon as it arrives; duplicates by URL are
dropped.

Examples:
  legal-assistant research "apportionment to prior lumbar injury"
  legal-assistant research "psychiatric injury compensable consequence" --jurisdiction California`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchQuery.Jurisdiction, "jurisdiction", "", "jurisdiction to search")
	researchCmd.Flags().StringVar(&researchQuery.TimeFrame, "time-frame", "", "publication time frame")
	researchCmd.Flags().StringVar(&researchQuery.Sources, "sources", "", "sources to include")
	researchCmd.Flags().StringVar(&researchQuery.IncludeKeywords, "include", "", "keywords to include (defaults to the query)")
	researchCmd.Flags().StringVar(&researchQuery.ExcludeKeywords, "exclude", "", "keywords to exclude")
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	q := researchQuery
	q.Query = args[0]

	enc := json.NewEncoder(cmd.OutOrStdout())
	results, err := a.workflow.ResearchCaseLaw(ctx, q, func(r models.ResearchResult) error {
		return enc.Encode(r)
	})
	if err != nil {
		return fmt.Errorf("research (%d results before failure): %w", len(results), err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%d results\n", len(results))
	return nil
}
