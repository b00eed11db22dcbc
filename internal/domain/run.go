package domain

import "time"

// RunKind enumerates the pipelines recorded in the ledger.
type RunKind string

const (
	RunScrape   RunKind = "scrape"
	RunAnalyze  RunKind = "analyze"
	RunSanitize RunKind = "sanitize"
)

// RunStatus is the outcome of a pipeline execution.
type RunStatus string

const (
	StatusComplete RunStatus = "complete"
	StatusPartial  RunStatus = "partial"
	StatusFailed   RunStatus = "failed"
)

// RunSummary counts what a pipeline did. Every command prints one.
type RunSummary struct {
	ID           string
	Kind         RunKind
	Scope        string
	StartedAt    time.Time
	FinishedAt   time.Time
	PagesVisited int
	PagesFailed  int
	Succeeded    int
	Skipped      int
	OutputPath   string
	Status       RunStatus
}

// Harvest counts one scrape: index pages walked and articles kept or skipped.
type Harvest struct {
	PagesVisited int
	PagesFailed  int
	Truncated    bool
	StopReason   string
	Listed       int
	Succeeded    int
	Skipped      int
}

// PagesFetched counts index pages that were downloaded and parsed.
func (h Harvest) PagesFetched() int {
	return h.PagesVisited - h.PagesFailed
}
