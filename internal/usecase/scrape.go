package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// ErrNoPagesFetched is returned when not a single index page could be read.
var ErrNoPagesFetched = errors.New("no index pages fetched")

// ScrapeDeps wires the adapters the scrape pipeline drives.
type ScrapeDeps struct {
	Source ports.ArticleSource
	Store  ports.ArticleStore
	Ledger ports.RunLedger
	Now    func() time.Time
	Logger *slog.Logger
}

// ScrapeRequest selects the window and the output file handling.
type ScrapeRequest struct {
	Window domain.DateWindow
	OutDir string
	// Append keeps an existing file for the same window instead of starting over.
	Append bool
}

// ScrapeOutcome reports what a scrape produced.
type ScrapeOutcome struct {
	Summary domain.RunSummary
	Harvest domain.Harvest
	Path    string
}

// Scraper walks the board and persists every article as soon as it is parsed,
// so an interrupted run keeps what it already saved.
type Scraper struct {
	source ports.ArticleSource
	store  ports.ArticleStore
	ledger ports.RunLedger
	now    func() time.Time
	logger *slog.Logger
}

// NewScraper constructs the scrape use case.
func NewScraper(deps ScrapeDeps) *Scraper {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Scraper{
		source: deps.Source,
		store:  deps.Store,
		ledger: deps.Ledger,
		now:    deps.Now,
		logger: deps.Logger,
	}
}

// Run scrapes req.Window. Partial harvests are not errors; only a run that
// fetched zero index pages returns ErrNoPagesFetched (alongside the outcome).
func (s *Scraper) Run(ctx context.Context, req ScrapeRequest) (ScrapeOutcome, error) {
	if s.source == nil || s.store == nil {
		return ScrapeOutcome{}, fmt.Errorf("scraper is not configured")
	}

	started := s.now()
	path := filepath.Join(req.OutDir, s.store.FileName(req.Window))
	outcome := ScrapeOutcome{
		Path: path,
		Summary: domain.RunSummary{
			Kind:       domain.RunScrape,
			Scope:      req.Window.Scope(),
			StartedAt:  started,
			OutputPath: path,
		},
	}

	// The previous file is replaced only once this run has something to save.
	reset := !req.Append
	var saved []domain.Article
	harvest, err := s.source.Collect(ctx, req.Window, started, func(article domain.Article) error {
		if reset {
			if err := s.store.Reset(path); err != nil {
				return err
			}
			reset = false
		}
		if err := s.store.Append(path, []domain.Article{article}); err != nil {
			return err
		}
		saved = append(saved, article)
		return nil
	})
	outcome.Harvest = harvest
	outcome.Summary.PagesVisited = harvest.PagesVisited
	outcome.Summary.PagesFailed = harvest.PagesFailed
	outcome.Summary.Succeeded = len(saved)
	outcome.Summary.Skipped = harvest.Skipped
	outcome.Summary.FinishedAt = s.now()

	switch {
	case err != nil:
		outcome.Summary.Status = domain.StatusFailed
		err = fmt.Errorf("scrape %s: %w", req.Window.Scope(), err)
	case harvest.PagesFetched() == 0:
		outcome.Summary.Status = domain.StatusFailed
		err = fmt.Errorf("scrape %s: %w (%s)", req.Window.Scope(), ErrNoPagesFetched, harvest.StopReason)
	case harvest.Truncated || harvest.PagesFailed > 0 || harvest.Skipped > 0:
		outcome.Summary.Status = domain.StatusPartial
	default:
		outcome.Summary.Status = domain.StatusComplete
	}

	s.logger.Info("scrape finished",
		"scope", outcome.Summary.Scope,
		"status", outcome.Summary.Status,
		"pages", harvest.PagesVisited,
		"pages_failed", harvest.PagesFailed,
		"saved", len(saved),
		"skipped", harvest.Skipped,
		"stop", harvest.StopReason,
		"path", path,
	)

	record(ctx, s.ledger, s.logger, outcome.Summary, saved)
	return outcome, err
}

// record writes the run to the ledger; the ledger is an audit aid and its
// failures never fail the run.
func record(ctx context.Context, ledger ports.RunLedger, logger *slog.Logger, run domain.RunSummary, articles []domain.Article) {
	if ledger == nil {
		return
	}
	if err := ledger.RecordRun(ctx, run, articles); err != nil {
		logger.Warn("record run failed", "kind", run.Kind, "err", err)
	}
}
