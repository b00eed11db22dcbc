package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
)

// PipelineDeps wires both use cases into the daily workflow.
type PipelineDeps struct {
	Scraper  *Scraper
	Analyzer *Analyzer
	Scrape   ScrapeRequest
	Analyze  AnalyzeRequest
	Logger   *slog.Logger
}

// Pipeline scrapes one day and analyzes what it saved.
type Pipeline struct {
	scraper  *Scraper
	analyzer *Analyzer
	scrape   ScrapeRequest
	analyze  AnalyzeRequest
	logger   *slog.Logger
}

// NewPipeline constructs the orchestration component. The requests act as
// templates; window and input path are filled in per run.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Pipeline{
		scraper:  deps.Scraper,
		analyzer: deps.Analyzer,
		scrape:   deps.Scrape,
		analyze:  deps.Analyze,
		logger:   deps.Logger,
	}
}

// ProcessDay scrapes day then analyzes the resulting file. A scrape that saved
// nothing skips the analysis.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) error {
	if p.scraper == nil {
		return nil
	}

	req := p.scrape
	req.Window = domain.SingleDay(day)
	scraped, err := p.scraper.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	if p.analyzer == nil {
		return nil
	}
	if scraped.Summary.Succeeded == 0 && !req.Append {
		p.logger.Info("nothing scraped, analysis skipped", "scope", req.Window.Scope())
		return nil
	}

	analyze := p.analyze
	analyze.CSVPath = scraped.Path
	analyze.Output = ""
	if _, err := p.analyzer.Run(ctx, analyze); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}
