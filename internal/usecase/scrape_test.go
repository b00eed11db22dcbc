package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/infrastructure/csvstore"
	"PTTSentiment/internal/logging"
)

func newTestScraper(source *fakeSource, ledger *recordingLedger) (*Scraper, *csvstore.Store) {
	store := csvstore.NewStore("Stock", fixedNow, logging.Discard())
	deps := ScrapeDeps{
		Source: source,
		Store:  store,
		Now:    fixedNow,
	}
	if ledger != nil {
		deps.Ledger = ledger
	}
	return NewScraper(deps), store
}

func TestScrapePersistsArticlesAndRecordsRun(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		articles: []domain.Article{article("1", "2025-04-14"), article("2", "2025-04-14")},
		harvest:  domain.Harvest{PagesVisited: 2, Listed: 2},
	}
	ledger := &recordingLedger{}
	scraper, store := newTestScraper(source, ledger)
	dir := t.TempDir()

	out, err := scraper.Run(context.Background(), ScrapeRequest{
		Window: domain.SingleDay(testNow),
		OutDir: dir,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "ptt_stock_articles_2025-04-14.csv"), out.Path)
	require.Equal(t, domain.StatusComplete, out.Summary.Status)
	require.Equal(t, 2, out.Summary.Succeeded)
	require.Equal(t, 0, out.Summary.Skipped)

	loaded, err := store.Load(out.Path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, source.articles[0].URL, loaded[0].URL)

	require.Len(t, ledger.runs, 1)
	require.Equal(t, domain.RunScrape, ledger.runs[0].Kind)
	require.Equal(t, "2025-04-14", ledger.runs[0].Scope)
	require.Len(t, ledger.articles[0], 2)
}

func TestScrapeResetsUnlessAppending(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := &fakeSource{
		articles: []domain.Article{article("1", "2025-04-14")},
		harvest:  domain.Harvest{PagesVisited: 1},
	}
	scraper, store := newTestScraper(source, nil)
	req := ScrapeRequest{Window: domain.SingleDay(testNow), OutDir: dir}

	_, err := scraper.Run(context.Background(), req)
	require.NoError(t, err)
	out, err := scraper.Run(context.Background(), req)
	require.NoError(t, err)

	loaded, err := store.Load(out.Path)
	require.NoError(t, err)
	require.Len(t, loaded, 1, "a fresh scrape replaces the file")

	req.Append = true
	_, err = scraper.Run(context.Background(), req)
	require.NoError(t, err)
	loaded, err = store.Load(out.Path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestScrapePartialHarvestIsNotAnError(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		articles: []domain.Article{article("1", "2025-04-14")},
		harvest: domain.Harvest{
			PagesVisited: 4,
			PagesFailed:  3,
			Truncated:    true,
			Skipped:      1,
			StopReason:   "too many consecutive failures",
		},
	}
	scraper, _ := newTestScraper(source, nil)

	out, err := scraper.Run(context.Background(), ScrapeRequest{Window: domain.SingleDay(testNow), OutDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartial, out.Summary.Status)
	require.Equal(t, 1, out.Summary.Succeeded)
	require.Equal(t, 1, out.Summary.Skipped)
	require.Equal(t, 3, out.Summary.PagesFailed)
}

func TestScrapeWithoutPagesFails(t *testing.T) {
	t.Parallel()

	source := &fakeSource{harvest: domain.Harvest{PagesVisited: 3, PagesFailed: 3, Truncated: true}}
	ledger := &recordingLedger{}
	scraper, _ := newTestScraper(source, ledger)
	dir := t.TempDir()

	out, err := scraper.Run(context.Background(), ScrapeRequest{Window: domain.SingleDay(testNow), OutDir: dir})
	require.ErrorIs(t, err, ErrNoPagesFetched)
	require.Equal(t, domain.StatusFailed, out.Summary.Status)
	require.Len(t, ledger.runs, 1)

	_, statErr := os.Stat(out.Path)
	require.True(t, os.IsNotExist(statErr))
}

func TestScrapeWithoutPagesKeepsPreviousFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := &fakeSource{
		articles: []domain.Article{article("1", "2025-04-14"), article("2", "2025-04-14")},
		harvest:  domain.Harvest{PagesVisited: 1, Listed: 2},
	}
	scraper, store := newTestScraper(source, nil)
	req := ScrapeRequest{Window: domain.SingleDay(testNow), OutDir: dir}

	first, err := scraper.Run(context.Background(), req)
	require.NoError(t, err)

	source.articles = nil
	source.harvest = domain.Harvest{PagesVisited: 3, PagesFailed: 3, Truncated: true}
	_, err = scraper.Run(context.Background(), req)
	require.ErrorIs(t, err, ErrNoPagesFetched)

	loaded, err := store.Load(first.Path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestScrapeSourceErrorIsReturned(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errBoom}
	ledger := &recordingLedger{err: errBoom}
	scraper, _ := newTestScraper(source, ledger)

	out, err := scraper.Run(context.Background(), ScrapeRequest{Window: domain.SingleDay(testNow), OutDir: t.TempDir()})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, domain.StatusFailed, out.Summary.Status)
	require.Len(t, ledger.runs, 1, "ledger errors are logged, not returned")
}
