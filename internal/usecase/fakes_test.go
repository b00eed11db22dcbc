package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/ports"
)

var testNow = time.Date(2025, time.April, 14, 22, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type fakeSource struct {
	articles []domain.Article
	harvest  domain.Harvest
	err      error
	windows  []domain.DateWindow
}

func (f *fakeSource) Collect(_ context.Context, window domain.DateWindow, _ time.Time, emit func(domain.Article) error) (domain.Harvest, error) {
	f.windows = append(f.windows, window)
	h := f.harvest
	for _, a := range f.articles {
		if err := emit(a); err != nil {
			return h, err
		}
		h.Succeeded++
	}
	return h, f.err
}

type fakeClassifier struct {
	mu      sync.Mutex
	batches [][]domain.Article
	opts    []ports.ClassifyOptions
	label   domain.SentimentLabel
	// fallback marks every result as a simulated fallback.
	fallback string
}

func (f *fakeClassifier) Classify(_ context.Context, articles []domain.Article, opts ports.ClassifyOptions) domain.SentimentResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, articles)
	f.opts = append(f.opts, opts)

	result := domain.SentimentResult{
		Label:     f.label,
		Rationale: "fake",
		Provider:  "fake",
		Model:     "fake-1",
	}
	if f.fallback != "" {
		result.Label = domain.SentimentSimulated
		result.Simulated = true
		result.FallbackReason = f.fallback
	}
	for _, a := range articles {
		result.Subjects = append(result.Subjects, domain.Subject{Title: a.Title, URL: a.URL, Date: a.Date})
	}
	return result
}

type recordingLedger struct {
	runs     []domain.RunSummary
	articles [][]domain.Article
	err      error
}

func (l *recordingLedger) RecordRun(_ context.Context, run domain.RunSummary, articles []domain.Article) error {
	l.runs = append(l.runs, run)
	l.articles = append(l.articles, articles)
	return l.err
}

func (l *recordingLedger) RecentRuns(context.Context, uint64) ([]domain.RunSummary, error) {
	return l.runs, nil
}

type fakeNotifier struct {
	reports []domain.Report
	err     error
}

func (n *fakeNotifier) PublishReport(_ context.Context, report domain.Report) error {
	n.reports = append(n.reports, report)
	return n.err
}

type fakeSanitizer struct {
	paths []string
	rows  int
	err   error
}

func (s *fakeSanitizer) Sanitize(path string) (int, error) {
	s.paths = append(s.paths, path)
	return s.rows, s.err
}

var errBoom = errors.New("boom")

func article(id, date string) domain.Article {
	return domain.Article{
		Title:   "title " + id,
		Date:    date,
		Author:  "author" + id,
		Board:   "Stock",
		URL:     "https://www.ptt.cc/bbs/Stock/M." + id + ".A.html",
		Content: "content " + id,
		Comments: []domain.Comment{
			{Author: "c" + id, Text: "推文 " + id, Vote: domain.VoteUp},
		},
	}
}
