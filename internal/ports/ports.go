package ports

import (
	"context"
	"time"

	"PTTSentiment/internal/domain"
)

// Fetcher downloads a single page of the forum.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ArticleSource walks a board and hands every parsed article in the window to emit.
// An emit error aborts the walk.
type ArticleSource interface {
	Collect(ctx context.Context, window domain.DateWindow, now time.Time, emit func(domain.Article) error) (domain.Harvest, error)
}

// ArticleStore persists scraped articles as CSV.
type ArticleStore interface {
	FileName(window domain.DateWindow) string
	Latest(dir string) (string, error)
	Reset(path string) error
	Append(path string, articles []domain.Article) error
	Load(path string) ([]domain.Article, error)
	// ScannedAt is the scrape stamp recorded in the file, empty when absent.
	ScannedAt(path string) (string, error)
	// Window is the scope encoded in the file name.
	Window(path string) (domain.DateWindow, bool)
}

// Classifier turns a batch of articles into a sentiment result. It never fails;
// unreachable services surface as simulated results.
type Classifier interface {
	Classify(ctx context.Context, articles []domain.Article, opts ClassifyOptions) domain.SentimentResult
}

// ClassifyOptions carries the per-run prompt context.
type ClassifyOptions struct {
	Scope           string
	PreviousSummary string
}

// Reporter renders results into markdown and places report files.
type Reporter interface {
	Render(results []domain.SentimentResult, meta domain.ReportMeta) (string, error)
	DefaultPath(dir, scope string, generatedAt time.Time) string
	// Previous finds the newest report for the day before day.
	Previous(dir string, day time.Time) (string, bool)
	Write(path, markdown string) error
}

// Sanitizer narrows a stored CSV to metadata columns.
type Sanitizer interface {
	Sanitize(path string) (int, error)
}

// RunLedger records pipeline executions for audit.
type RunLedger interface {
	RecordRun(ctx context.Context, run domain.RunSummary, articles []domain.Article) error
	RecentRuns(ctx context.Context, limit uint64) ([]domain.RunSummary, error)
}

// Notifier publishes a finished report to a chat channel.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.Report) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context, time.Time)) error
	Stop(ctx context.Context) error
}
