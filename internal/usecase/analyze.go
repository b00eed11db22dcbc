package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// Analysis modes.
const (
	ModeBatch   = "batch"
	ModeArticle = "article"
)

// AnalyzeDeps wires the adapters the analysis pipeline drives.
type AnalyzeDeps struct {
	Store      ports.ArticleStore
	Classifier ports.Classifier
	Reporter   ports.Reporter
	Sanitizer  ports.Sanitizer
	Notifier   ports.Notifier
	Ledger     ports.RunLedger
	// PreviousSummary turns a previous report into prompt context.
	PreviousSummary func(markdown string) string
	Board           string
	Now             func() time.Time
	Logger          *slog.Logger
}

// AnalyzeRequest selects input, output and post-processing.
type AnalyzeRequest struct {
	// CSVPath defaults to the newest article file in ArticleDir.
	CSVPath    string
	ArticleDir string
	// Output defaults to a derived name in OutputDir.
	Output          string
	OutputDir       string
	Mode            string
	BatchSize       int
	IncludePrevious bool
	SanitizeCSV     bool
	RemoveCSV       bool
}

// AnalyzeOutcome reports what an analysis produced.
type AnalyzeOutcome struct {
	Summary domain.RunSummary
	Report  domain.Report
	Results []domain.SentimentResult
	// Sanitized counts rows narrowed after analysis.
	Sanitized int
	Removed   bool
}

// Analyzer classifies a stored scrape and writes the markdown report.
type Analyzer struct {
	store      ports.ArticleStore
	classifier ports.Classifier
	reporter   ports.Reporter
	sanitizer  ports.Sanitizer
	notifier   ports.Notifier
	ledger     ports.RunLedger
	previous   func(string) string
	board      string
	now        func() time.Time
	logger     *slog.Logger
}

// NewAnalyzer constructs the analysis use case.
func NewAnalyzer(deps AnalyzeDeps) *Analyzer {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Analyzer{
		store:      deps.Store,
		classifier: deps.Classifier,
		reporter:   deps.Reporter,
		sanitizer:  deps.Sanitizer,
		notifier:   deps.Notifier,
		ledger:     deps.Ledger,
		previous:   deps.PreviousSummary,
		board:      deps.Board,
		now:        deps.Now,
		logger:     deps.Logger,
	}
}

// Run analyzes one CSV. Unreadable input is an error; an unreachable sentiment
// service is not, its batches come back simulated.
func (a *Analyzer) Run(ctx context.Context, req AnalyzeRequest) (AnalyzeOutcome, error) {
	if a.store == nil || a.classifier == nil || a.reporter == nil {
		return AnalyzeOutcome{}, fmt.Errorf("analyzer is not configured")
	}

	started := a.now()
	path := req.CSVPath
	if path == "" {
		latest, err := a.store.Latest(req.ArticleDir)
		if err != nil {
			return AnalyzeOutcome{}, fmt.Errorf("find article file: %w", err)
		}
		path = latest
	}

	articles, err := a.store.Load(path)
	if err != nil {
		a.fail(ctx, started, path, err)
		return AnalyzeOutcome{}, fmt.Errorf("load articles: %w", err)
	}

	window, ok := windowOf(articles)
	if !ok {
		window, ok = a.store.Window(path)
	}
	if !ok {
		window = domain.SingleDay(started)
	}
	scope := window.Scope()

	scannedAt, err := a.store.ScannedAt(path)
	if err != nil {
		a.logger.Warn("read scanned_at failed", "path", path, "err", err)
	}

	opts := ports.ClassifyOptions{Scope: scope}
	if req.IncludePrevious {
		opts.PreviousSummary = a.previousSummary(req.OutputDir, window.From)
	}

	var results []domain.SentimentResult
	for i, batch := range Batches(articles, req.Mode, req.BatchSize) {
		if err := ctx.Err(); err != nil {
			return AnalyzeOutcome{}, fmt.Errorf("analyze %s: %w", scope, err)
		}
		result := a.classifier.Classify(ctx, batch, opts)
		a.logger.Debug("batch classified",
			"batch", i+1,
			"articles", len(batch),
			"label", result.Label,
			"simulated", result.Simulated,
		)
		results = append(results, result)
	}

	generated := a.now()
	meta := domain.ReportMeta{
		Scope:       scope,
		Board:       a.board,
		SourceFile:  path,
		ScannedAt:   scannedAt,
		GeneratedAt: generated,
		Articles:    len(articles),
	}
	markdown, err := a.reporter.Render(results, meta)
	if err != nil {
		a.fail(ctx, started, path, err)
		return AnalyzeOutcome{}, fmt.Errorf("render report: %w", err)
	}

	output := req.Output
	if output == "" {
		output = a.reporter.DefaultPath(req.OutputDir, scope, generated)
	}
	if err := a.reporter.Write(output, markdown); err != nil {
		a.fail(ctx, started, path, err)
		return AnalyzeOutcome{}, err
	}

	outcome := AnalyzeOutcome{
		Results: results,
		Report: domain.Report{
			Meta:     meta,
			Path:     output,
			Markdown: markdown,
			Counts:   LabelCounts(results),
		},
		Summary: domain.RunSummary{
			Kind:       domain.RunAnalyze,
			Scope:      scope,
			StartedAt:  started,
			OutputPath: output,
			Status:     domain.StatusComplete,
		},
	}
	for _, r := range results {
		if r.FallbackReason != "" {
			outcome.Summary.Skipped++
			outcome.Summary.Status = domain.StatusPartial
			continue
		}
		outcome.Summary.Succeeded++
	}

	a.logger.Info("report written",
		"path", output,
		"articles", len(articles),
		"batches", len(results),
		"fallbacks", outcome.Summary.Skipped,
	)

	a.publish(ctx, outcome.Report)

	if err := a.cleanup(req, path, &outcome); err != nil {
		outcome.Summary.FinishedAt = a.now()
		outcome.Summary.Status = domain.StatusFailed
		record(ctx, a.ledger, a.logger, outcome.Summary, nil)
		return outcome, err
	}

	outcome.Summary.FinishedAt = a.now()
	record(ctx, a.ledger, a.logger, outcome.Summary, nil)
	return outcome, nil
}

func (a *Analyzer) cleanup(req AnalyzeRequest, path string, outcome *AnalyzeOutcome) error {
	if req.RemoveCSV {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		outcome.Removed = true
		a.logger.Info("article file removed", "path", path)
		return nil
	}
	if req.SanitizeCSV && a.sanitizer != nil {
		rows, err := a.sanitizer.Sanitize(path)
		if err != nil {
			return fmt.Errorf("sanitize %s: %w", path, err)
		}
		outcome.Sanitized = rows
	}
	return nil
}

func (a *Analyzer) publish(ctx context.Context, report domain.Report) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.PublishReport(ctx, report); err != nil {
		a.logger.Warn("publish report failed", "err", err)
	}
}

func (a *Analyzer) previousSummary(dir string, day time.Time) string {
	path, ok := a.reporter.Previous(dir, day)
	if !ok {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("read previous report failed", "path", path, "err", err)
		return ""
	}
	a.logger.Debug("previous report included", "path", path)
	if a.previous == nil {
		return string(raw)
	}
	return a.previous(string(raw))
}

func (a *Analyzer) fail(ctx context.Context, started time.Time, path string, err error) {
	a.logger.Error("analysis failed", "path", path, "err", err)
	record(ctx, a.ledger, a.logger, domain.RunSummary{
		Kind:       domain.RunAnalyze,
		StartedAt:  started,
		FinishedAt: a.now(),
		OutputPath: path,
		Status:     domain.StatusFailed,
	}, nil)
}

// Batches splits articles for classification. Article mode yields one batch per
// article; batch mode groups size articles, or all of them when size <= 0.
func Batches(articles []domain.Article, mode string, size int) [][]domain.Article {
	if len(articles) == 0 {
		return nil
	}
	if mode == ModeArticle {
		size = 1
	}
	if size <= 0 || size > len(articles) {
		size = len(articles)
	}

	out := make([][]domain.Article, 0, (len(articles)+size-1)/size)
	for start := 0; start < len(articles); start += size {
		end := start + size
		if end > len(articles) {
			end = len(articles)
		}
		out = append(out, articles[start:end])
	}
	return out
}

// LabelCounts counts covered articles per label.
func LabelCounts(results []domain.SentimentResult) map[domain.SentimentLabel]int {
	counts := map[domain.SentimentLabel]int{}
	for _, r := range results {
		counts[r.Label] += r.Covered()
	}
	return counts
}

func windowOf(articles []domain.Article) (domain.DateWindow, bool) {
	var window domain.DateWindow
	found := false
	for _, article := range articles {
		day, err := article.Day()
		if err != nil {
			continue
		}
		if !found || day.Before(window.From) {
			window.From = day
		}
		if !found || day.After(window.To) {
			window.To = day
		}
		found = true
	}
	return window, found
}
