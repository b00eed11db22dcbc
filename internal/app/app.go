package app

import (
	"context"
	"fmt"
	"log/slog"

	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/infrastructure/csvstore"
	"PTTSentiment/internal/infrastructure/fetcher"
	"PTTSentiment/internal/infrastructure/llm"
	"PTTSentiment/internal/infrastructure/parser"
	"PTTSentiment/internal/infrastructure/report"
	"PTTSentiment/internal/infrastructure/scheduler"
	"PTTSentiment/internal/infrastructure/storage"
	"PTTSentiment/internal/infrastructure/telegram"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
	"PTTSentiment/internal/scanner"
	"PTTSentiment/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store  *csvstore.Store
	ledger *storage.SQLiteLedger

	scraper  *usecase.Scraper
	analyzer *usecase.Analyzer
}

// New builds the adapters every command shares. The sentiment client is
// created on first analysis so scrape-only runs never touch its configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:    cfg,
		logger: baseLogger,
		store:  csvstore.NewStore(cfg.Board.Name, cfg.Now, baseLogger.With("component", "csvstore")),
	}

	if cfg.Ledger.Path != "" {
		ledger, err := storage.OpenSQLiteLedger(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		a.ledger = ledger
	}

	pageFetcher, err := fetcher.New(cfg.Fetcher, baseLogger.With("component", "fetcher"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewPTTScanner(pageFetcher, cfg.Scrape.PageDelay, baseLogger.With("component", "scanner.ptt")))

	source := parser.NewStrategySource(registry, pageFetcher, cfg.Board, cfg.Scrape, baseLogger.With("component", "source"))

	a.scraper = usecase.NewScraper(usecase.ScrapeDeps{
		Source: source,
		Store:  a.store,
		Ledger: a.runLedger(),
		Now:    cfg.Now,
		Logger: baseLogger.With("component", "scrape"),
	})

	return a, nil
}

// Config exposes the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Close releases the ledger.
func (a *Application) Close() error {
	return a.ledger.Close()
}

// Scrape runs the scrape pipeline for window.
func (a *Application) Scrape(ctx context.Context, window domain.DateWindow, appendRows bool) (usecase.ScrapeOutcome, error) {
	return a.scraper.Run(ctx, usecase.ScrapeRequest{
		Window: window,
		OutDir: a.cfg.Scrape.OutputDir,
		Append: appendRows,
	})
}

// AnalyzeOptions are the per-invocation analysis flags.
type AnalyzeOptions struct {
	CSVPath     string
	Output      string
	Mode        string
	SanitizeCSV bool
	RemoveCSV   bool
}

// Analyze runs the analysis pipeline.
func (a *Application) Analyze(ctx context.Context, opts AnalyzeOptions) (usecase.AnalyzeOutcome, error) {
	analyzer, err := a.analysis()
	if err != nil {
		return usecase.AnalyzeOutcome{}, err
	}
	req := a.analyzeRequest()
	req.CSVPath = opts.CSVPath
	req.Output = opts.Output
	req.SanitizeCSV = opts.SanitizeCSV
	req.RemoveCSV = opts.RemoveCSV
	if opts.Mode != "" {
		req.Mode = opts.Mode
	}
	return analyzer.Run(ctx, req)
}

// Sanitize narrows path to metadata columns.
func (a *Application) Sanitize(ctx context.Context, path string) (domain.RunSummary, error) {
	sanitizer := csvstore.NewSanitizer(a.logger.With("component", "sanitizer"))
	return usecase.NewSanitize(sanitizer, a.runLedger(), a.cfg.Now, a.logger.With("component", "sanitize")).Run(ctx, path)
}

// History lists recent runs from the ledger.
func (a *Application) History(ctx context.Context, limit uint64) ([]domain.RunSummary, error) {
	if a.ledger == nil {
		return nil, fmt.Errorf("ledger disabled: set ledger.path or PTT_SENTIMENT_LEDGER")
	}
	return a.ledger.RecentRuns(ctx, limit)
}

// Run starts the cron daemon and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	analyzer, err := a.analysis()
	if err != nil {
		return err
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Scraper:  a.scraper,
		Analyzer: analyzer,
		Scrape:   usecase.ScrapeRequest{OutDir: a.cfg.Scrape.OutputDir},
		Analyze:  a.analyzeRequest(),
		Logger:   a.logger.With("component", "pipeline"),
	})

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Location())
	jobs := usecase.NewScheduler(driver, pipeline, a.logger.With("component", "scheduler"))
	if err := jobs.Start(ctx); err != nil {
		return err
	}

	if next, err := driver.Next(a.cfg.Now()); err == nil {
		a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "next", next)
	}

	<-ctx.Done()
	a.logger.Info("scheduler stopping")
	return jobs.Stop(context.Background())
}

func (a *Application) analysis() (*usecase.Analyzer, error) {
	if a.analyzer != nil {
		return a.analyzer, nil
	}

	client, err := llm.NewClient(a.cfg.Analysis, a.cfg.Board.Name, a.logger.With("component", "llm"))
	if err != nil {
		return nil, err
	}
	reporter, err := report.NewMarkdown(a.cfg.Board.Name)
	if err != nil {
		return nil, err
	}

	var notifier ports.Notifier
	if tg := a.cfg.Notifications.Telegram; tg.Enabled() {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.analyzer = usecase.NewAnalyzer(usecase.AnalyzeDeps{
		Store:           a.store,
		Classifier:      client,
		Reporter:        reporter,
		Sanitizer:       csvstore.NewSanitizer(a.logger.With("component", "sanitizer")),
		Notifier:        notifier,
		Ledger:          a.runLedger(),
		PreviousSummary: report.AggregateSection,
		Board:           a.cfg.Board.Name,
		Now:             a.cfg.Now,
		Logger:          a.logger.With("component", "analyze"),
	})
	return a.analyzer, nil
}

func (a *Application) analyzeRequest() usecase.AnalyzeRequest {
	return usecase.AnalyzeRequest{
		ArticleDir:      a.cfg.Scrape.OutputDir,
		OutputDir:       a.cfg.Analysis.OutputDir,
		Mode:            a.cfg.Analysis.Mode,
		BatchSize:       a.cfg.Analysis.BatchSize,
		IncludePrevious: a.cfg.Analysis.IncludePreviousReport,
	}
}

// runLedger keeps a disabled ledger a nil interface.
func (a *Application) runLedger() ports.RunLedger {
	if a.ledger == nil {
		return nil
	}
	return a.ledger
}
