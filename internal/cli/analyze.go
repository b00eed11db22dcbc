package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"PTTSentiment/internal/app"
	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/usecase"
)

var analyzeFlags struct {
	csv         string
	output      string
	mode        string
	sanitizeCSV bool
	removeCSV   bool
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.csv, "csv", "", "article CSV (default: newest file in the scrape output dir)")
	f.StringVar(&analyzeFlags.output, "output", "", "report path (default: derived name in analysis.outputDir)")
	f.StringVar(&analyzeFlags.mode, "mode", "", "batch or article")
	f.BoolVar(&analyzeFlags.sanitizeCSV, "sanitize-csv", false, "strip content and comments from the CSV afterwards")
	f.BoolVar(&analyzeFlags.removeCSV, "remove-csv", false, "delete the CSV afterwards")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [--csv PATH] [--output PATH] [--sanitize-csv]",
	Short: "Classifies the sentiment of a scraped CSV and writes a markdown report.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := analyzeFlags.mode
		if mode != "" && mode != config.ModeBatch && mode != config.ModeArticle {
			return fmt.Errorf("--mode must be %s or %s", config.ModeBatch, config.ModeArticle)
		}

		application, err := loadApp(nil)
		if err != nil {
			return err
		}
		defer application.Close()

		outcome, err := application.Analyze(cmd.Context(), app.AnalyzeOptions{
			CSVPath:     analyzeFlags.csv,
			Output:      analyzeFlags.output,
			Mode:        mode,
			SanitizeCSV: analyzeFlags.sanitizeCSV,
			RemoveCSV:   analyzeFlags.removeCSV,
		})
		if err != nil {
			return err
		}
		printAnalyze(outcome)
		return nil
	},
}

func printAnalyze(outcome usecase.AnalyzeOutcome) {
	s := outcome.Summary
	t := newTable()
	t.AppendHeader(table.Row{"Scope", "Articles", "Batches", "Succeeded", "Simulated", "Status", "Report"})
	t.AppendRow(table.Row{s.Scope, outcome.Report.Meta.Articles, len(outcome.Results), s.Succeeded, s.Skipped, s.Status, outcome.Report.Path})
	t.Render()

	counts := newTable()
	counts.AppendHeader(table.Row{"Label", "Articles"})
	for _, label := range domain.Labels() {
		if n := outcome.Report.Counts[label]; n > 0 {
			counts.AppendRow(table.Row{label, n})
		}
	}
	counts.Render()

	switch {
	case outcome.Removed:
		fmt.Println("source CSV removed:", outcome.Report.Meta.SourceFile)
	case outcome.Sanitized > 0:
		fmt.Printf("source CSV sanitized: %s (%d rows)\n", outcome.Report.Meta.SourceFile, outcome.Sanitized)
	}
}
