package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xaenox/legal-assistant/internal/document"
	"github.com/xaenox/legal-assistant/internal/models"
)

var (
	analyzeOccupation string
	analyzeAge        string
	analyzeAssistant  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.pdf>",
	Short: "Rate a medical report and print the analysis as JSON",
	Long: `Extract the text of a medical report and compute its permanent
disability rating.

By default the function-calling analysis is used; --assistant runs the
report through the assistant with reference tables instead.

Examples:
  legal-assistant analyze report.pdf --occupation "registered nurse" --age 45
  legal-assistant analyze report.pdf --assistant`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOccupation, "occupation", "", "injured worker's occupation")
	analyzeCmd.Flags().StringVar(&analyzeAge, "age", "", "age at date of injury")
	analyzeCmd.Flags().BoolVar(&analyzeAssistant, "assistant", false, "use the assistant run orchestrator")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	kind, err := document.AnalysisPolicy(cfg.Server.MaxUploadBytes).Check(filepath.Base(path), "", info.Size())
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text, err := document.Extract(kind, data)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var result models.AnalysisResult
	switch {
	case analyzeAssistant && a.orchestrator == nil:
		return errors.New("assistant is not configured")
	case analyzeAssistant:
		result = a.orchestrator.ProcessDocument(ctx, text.Content, analyzeOccupation, analyzeAge, cfg.Assistant.MaxRetries)
	case a.analyzer == nil:
		return errors.New("OPENAI_API_KEY is not configured")
	default:
		result, err = a.analyzer.Analyze(ctx, text.Content, analyzeOccupation, analyzeAge)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
