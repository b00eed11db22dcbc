package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PTTSentiment/internal/config"
	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/ports"
	"PTTSentiment/internal/scanner"
)

// StrategySource implements ArticleSource via a registered board scanner.
type StrategySource struct {
	registry *scanner.Registry
	fetcher  ports.Fetcher
	board    config.BoardConfig
	scrape   config.ScrapeConfig
	parser   ArticleParser
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured board.
func NewStrategySource(reg *scanner.Registry, fetcher ports.Fetcher, board config.BoardConfig, scrape config.ScrapeConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		fetcher:  fetcher,
		board:    board,
		scrape:   scrape,
		parser:   ArticleParser{MaxContentRunes: scrape.ContentMaxLength},
		logger:   log,
	}
}

// Collect walks the board index for window and emits each article that parses.
// Articles that fail to download or parse are logged and counted as skipped.
func (s *StrategySource) Collect(ctx context.Context, window domain.DateWindow, now time.Time, emit func(domain.Article) error) (domain.Harvest, error) {
	if s.registry == nil {
		return domain.Harvest{}, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.board.Scanner)
	if err != nil {
		return domain.Harvest{}, fmt.Errorf("board %s: %w", s.board.Name, err)
	}

	s.debug("walk board", "board", s.board.Name, "scanner", strategy.Name(), "window", window.Scope())
	walk, err := strategy.Scan(ctx, scanner.Request{
		Board:                  scanner.Board{Name: s.board.Name, IndexURL: s.board.IndexURL()},
		Window:                 window,
		Now:                    now,
		MaxPages:               s.scrape.MaxPages,
		MaxConsecutiveFailures: s.scrape.MaxConsecutiveFailures,
	})
	if err != nil {
		return domain.Harvest{}, fmt.Errorf("scan board %s: %w", s.board.Name, err)
	}

	harvest := domain.Harvest{
		PagesVisited: walk.PagesVisited,
		PagesFailed:  walk.PagesFailed,
		Truncated:    walk.Truncated,
		StopReason:   walk.StopReason,
		Listed:       len(walk.Entries),
	}

	for _, entry := range walk.Entries {
		if err := ctx.Err(); err != nil {
			return harvest, err
		}

		article, err := s.article(ctx, entry)
		if err != nil {
			harvest.Skipped++
			s.warn("skip article", "url", entry.URL, "title", entry.Title, "error", err)
			continue
		}
		if err := emit(article); err != nil {
			return harvest, fmt.Errorf("store article %s: %w", entry.URL, err)
		}
		harvest.Succeeded++
	}

	s.debug("board collected", "board", s.board.Name, "listed", harvest.Listed,
		"succeeded", harvest.Succeeded, "skipped", harvest.Skipped)
	return harvest, nil
}

func (s *StrategySource) article(ctx context.Context, entry scanner.Entry) (domain.Article, error) {
	html, err := s.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		return domain.Article{}, err
	}

	parsed, err := s.parser.Parse(strings.NewReader(html), entry.URL, ArticleHint{
		Title:  entry.Title,
		Author: entry.Author,
		Date:   entry.Date,
	})
	if err != nil {
		return domain.Article{}, err
	}
	if len(parsed.Defaulted) > 0 || len(parsed.FromHint) > 0 {
		s.debug("article fields defaulted", "url", entry.URL,
			"defaulted", parsed.Defaulted, "from_index", parsed.FromHint)
	}

	article := parsed.Article
	// the index date decided window membership, so it stays authoritative
	if article.Date != entry.Date && entry.Date != "" {
		s.debug("article date differs from index", "url", entry.URL, "article", article.Date, "index", entry.Date)
		article.Date = entry.Date
	}
	article.Board = s.board.Name
	return article, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
