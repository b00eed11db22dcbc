package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/infrastructure/parser"
	"PTTSentiment/internal/usecase"
)

var scrapeFlags struct {
	date        string
	from        string
	to          string
	maxPages    int
	maxFailures int
	outDir      string
	appendRows  bool
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.date, "date", "", "single day to scrape, MM-DD or YYYY-MM-DD (default today)")
	f.StringVar(&scrapeFlags.from, "from", "", "first day of a range")
	f.StringVar(&scrapeFlags.to, "to", "", "last day of a range (default today)")
	f.IntVar(&scrapeFlags.maxPages, "max-pages", 0, "index pages to walk at most")
	f.IntVar(&scrapeFlags.maxFailures, "max-failures", 0, "consecutive page failures before giving up")
	f.StringVar(&scrapeFlags.outDir, "out-dir", "", "directory for the article CSV")
	f.BoolVar(&scrapeFlags.appendRows, "append", false, "append to an existing file for the same window")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--date D | --from D --to D] [--max-pages N]",
	Short: "Scrapes the board for a day or a date range and writes a CSV.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := loadApp(func(cfg *config.Config) {
			if scrapeFlags.maxPages > 0 {
				cfg.Scrape.MaxPages = scrapeFlags.maxPages
			}
			if scrapeFlags.maxFailures > 0 {
				cfg.Scrape.MaxConsecutiveFailures = scrapeFlags.maxFailures
			}
			if scrapeFlags.outDir != "" {
				cfg.Scrape.OutputDir = scrapeFlags.outDir
			}
		})
		if err != nil {
			return err
		}
		defer application.Close()

		window, err := resolveWindow(scrapeFlags.date, scrapeFlags.from, scrapeFlags.to, application.Config().Now())
		if err != nil {
			return err
		}

		outcome, runErr := application.Scrape(cmd.Context(), window, scrapeFlags.appendRows)
		printScrape(outcome)
		return runErr
	},
}

// resolveWindow turns the date flags into an inclusive window.
func resolveWindow(date, from, to string, now time.Time) (domain.DateWindow, error) {
	if date != "" && (from != "" || to != "") {
		return domain.DateWindow{}, fmt.Errorf("--date cannot be combined with --from/--to")
	}
	if from == "" && to != "" {
		return domain.DateWindow{}, fmt.Errorf("--to needs --from")
	}

	if from == "" {
		day := domain.TruncateDay(now)
		if date != "" {
			parsed, err := parser.ParseDay(date, now)
			if err != nil {
				return domain.DateWindow{}, err
			}
			day = parsed
		}
		return domain.SingleDay(day), nil
	}

	start, err := parser.ParseDay(from, now)
	if err != nil {
		return domain.DateWindow{}, err
	}
	end := domain.TruncateDay(now)
	if to != "" {
		if end, err = parser.ParseDay(to, now); err != nil {
			return domain.DateWindow{}, err
		}
	}
	if end.Before(start) {
		return domain.DateWindow{}, fmt.Errorf("--from %s is after --to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}
	return domain.DateWindow{From: start, To: end}, nil
}

func printScrape(outcome usecase.ScrapeOutcome) {
	s := outcome.Summary
	t := newTable()
	t.AppendHeader(table.Row{"Scope", "Pages", "Pages failed", "Saved", "Skipped", "Status", "File"})
	t.AppendRow(table.Row{s.Scope, s.PagesVisited, s.PagesFailed, s.Succeeded, s.Skipped, s.Status, outcome.Path})
	if outcome.Harvest.StopReason != "" {
		t.AppendFooter(table.Row{"Stop", outcome.Harvest.StopReason})
	}
	t.Render()
}
