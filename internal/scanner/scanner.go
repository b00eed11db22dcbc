package scanner

import (
	"context"
	"fmt"
	"time"

	"PTTSentiment/internal/domain"
)

// Board describes the forum section a walk starts from.
type Board struct {
	Name     string
	IndexURL string
}

// Request carries all parameters required to execute a walk.
type Request struct {
	Board  Board
	Window domain.DateWindow
	// Now anchors year inference for index dates that carry only month and day.
	Now                    time.Time
	MaxPages               int
	MaxConsecutiveFailures int
}

// Entry is one article listed on an index page.
type Entry struct {
	Title  string
	URL    string
	Author string
	Date   string
}

// Result is the outcome of a walk. Partial results are a normal outcome:
// Truncated is set when consecutive page failures ended the walk early.
type Result struct {
	Entries      []Entry
	PagesVisited int
	PagesFailed  int
	Truncated    bool
	StopReason   string
}

// PagesFetched counts index pages that were downloaded and parsed.
func (r Result) PagesFetched() int {
	return r.PagesVisited - r.PagesFailed
}

// Scanner captures a single board-walking strategy.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) (Result, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
