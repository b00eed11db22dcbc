package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
	"PTTSentiment/internal/scanner"
)

// Stop reasons reported in scanner.Result.
const (
	StopWindowExhausted = "window exhausted"
	StopMaxPages        = "max pages reached"
	StopFailures        = "too many consecutive failures"
	StopNoPreviousPage  = "no previous page"
	StopCancelled       = "cancelled"
)

// PTTScanner walks a board's index pages from newest to oldest and collects the
// entries whose date falls inside the requested window.
type PTTScanner struct {
	fetcher   ports.Fetcher
	logger    *slog.Logger
	pageDelay time.Duration
	sleep     func(context.Context, time.Duration)
}

var _ scanner.Scanner = (*PTTScanner)(nil)

// NewPTTScanner wires a fetcher; pageDelay spaces index requests apart.
func NewPTTScanner(fetcher ports.Fetcher, pageDelay time.Duration, logger *slog.Logger) *PTTScanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PTTScanner{
		fetcher:   fetcher,
		logger:    logger,
		pageDelay: pageDelay,
		sleep:     sleepContext,
	}
}

// Name identifies the strategy inside the registry.
func (s *PTTScanner) Name() string {
	return "ptt"
}

// Scan visits at most req.MaxPages index pages. A failed page is logged and
// skipped; once req.MaxConsecutiveFailures pages in a row fail the walk stops
// and returns what it has with Truncated set. Scan only returns an error for an
// invalid request.
func (s *PTTScanner) Scan(ctx context.Context, req scanner.Request) (scanner.Result, error) {
	if req.Board.IndexURL == "" {
		return scanner.Result{}, fmt.Errorf("board %s has no index url", req.Board.Name)
	}
	if req.MaxPages <= 0 {
		return scanner.Result{}, fmt.Errorf("max pages must be positive, got %d", req.MaxPages)
	}
	if req.Window.To.Before(req.Window.From) {
		return scanner.Result{}, fmt.Errorf("window ends %s before it starts %s",
			req.Window.To.Format(domain.DateLayout), req.Window.From.Format(domain.DateLayout))
	}
	maxFailures := req.MaxConsecutiveFailures
	if maxFailures <= 0 {
		maxFailures = 1
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	var (
		result      scanner.Result
		pages       [][]scanner.Entry
		consecutive int
		pageURL     = req.Board.IndexURL
	)

	for {
		if result.PagesVisited >= req.MaxPages {
			result.StopReason = StopMaxPages
			break
		}
		if ctx.Err() != nil {
			result.StopReason = StopCancelled
			break
		}
		if result.PagesVisited > 0 && s.pageDelay > 0 {
			s.sleep(ctx, s.pageDelay)
		}

		result.PagesVisited++
		page, err := s.visit(ctx, pageURL)
		if err != nil {
			result.PagesFailed++
			consecutive++
			s.logger.Warn("skip index page", "url", pageURL, "error", err, "consecutive_failures", consecutive)
			if consecutive >= maxFailures {
				result.Truncated = true
				result.StopReason = StopFailures
				break
			}
			// the newest page has no number, so it is retried in place
			if prev, ok := PreviousIndexURL(pageURL); ok {
				pageURL = prev
			}
			continue
		}
		consecutive = 0

		entries, exhausted := s.collect(page, req.Window, now)
		pages = append(pages, entries)
		s.logger.Debug("index page parsed", "url", pageURL, "entries", len(page.Entries), "matched", len(entries))

		if exhausted {
			result.StopReason = StopWindowExhausted
			break
		}

		next := page.PrevURL
		if next == "" {
			if derived, ok := PreviousIndexURL(pageURL); ok {
				next = derived
			}
		}
		if next == "" {
			result.StopReason = StopNoPreviousPage
			break
		}
		pageURL = next
	}

	// pages were visited newest first; emit oldest first
	for i := len(pages) - 1; i >= 0; i-- {
		result.Entries = append(result.Entries, pages[i]...)
	}

	s.logger.Info("walk finished",
		"board", req.Board.Name,
		"window", req.Window.Scope(),
		"pages_visited", result.PagesVisited,
		"pages_failed", result.PagesFailed,
		"entries", len(result.Entries),
		"stop_reason", result.StopReason,
	)
	return result, nil
}

func (s *PTTScanner) visit(ctx context.Context, pageURL string) (IndexPage, error) {
	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return IndexPage{}, err
	}
	return ParseIndex(strings.NewReader(html), pageURL)
}

// collect keeps the in-window entries of one page and reports whether the
// oldest dated entry already precedes the window start. Pinned and undated
// entries are ignored for both purposes.
func (s *PTTScanner) collect(page IndexPage, window domain.DateWindow, now time.Time) ([]scanner.Entry, bool) {
	var (
		matched []scanner.Entry
		oldest  time.Time
	)
	from := domain.TruncateDay(window.From)

	for _, entry := range page.Entries {
		if entry.Pinned {
			continue
		}
		date, err := NormalizeIndexDate(entry.RawDate, now)
		if err != nil {
			s.logger.Debug("skip undated entry", "title", entry.Title, "raw_date", entry.RawDate)
			continue
		}
		day, _ := time.Parse(domain.DateLayout, date)
		if oldest.IsZero() || day.Before(oldest) {
			oldest = day
		}
		if !window.Contains(day) {
			continue
		}
		matched = append(matched, scanner.Entry{
			Title:  entry.Title,
			URL:    entry.URL,
			Author: entry.Author,
			Date:   date,
		})
	}

	return matched, !oldest.IsZero() && oldest.Before(from)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
