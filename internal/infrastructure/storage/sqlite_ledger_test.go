package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
)

func TestLedgerRecordsAndListsRuns(t *testing.T) {
	t.Parallel()

	ledger, err := OpenSQLiteLedger(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	ctx := context.Background()
	base := time.Date(2025, time.April, 14, 22, 30, 0, 0, time.UTC)

	scrape := domain.RunSummary{
		Kind:         domain.RunScrape,
		Scope:        "2025-04-14",
		StartedAt:    base,
		FinishedAt:   base.Add(time.Minute),
		PagesVisited: 4,
		PagesFailed:  1,
		Succeeded:    2,
		Skipped:      1,
		OutputPath:   "articles/ptt_stock_articles_2025-04-14.csv",
		Status:       domain.StatusPartial,
	}
	articles := []domain.Article{
		{Title: "b", Date: "2025-04-14", URL: "https://www.ptt.cc/bbs/Stock/M.2.A.html"},
		{Title: "a", Date: "2025-04-14", URL: "https://www.ptt.cc/bbs/Stock/M.1.A.html"},
		{Title: "a again", Date: "2025-04-14", URL: "https://www.ptt.cc/bbs/Stock/M.1.A.html"},
	}
	require.NoError(t, ledger.RecordRun(ctx, scrape, articles))

	analyze := domain.RunSummary{
		ID:         "analyze-1",
		Kind:       domain.RunAnalyze,
		Scope:      "2025-04-14",
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Minute),
		Succeeded:  2,
		Status:     domain.StatusComplete,
	}
	require.NoError(t, ledger.RecordRun(ctx, analyze, nil))

	runs, err := ledger.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.Equal(t, "analyze-1", runs[0].ID)
	require.Equal(t, domain.RunAnalyze, runs[0].Kind)
	require.Empty(t, runs[0].OutputPath)
	require.True(t, runs[0].StartedAt.Equal(analyze.StartedAt))

	got := runs[1]
	require.NotEmpty(t, got.ID)
	require.Equal(t, domain.RunScrape, got.Kind)
	require.Equal(t, domain.StatusPartial, got.Status)
	require.Equal(t, 4, got.PagesVisited)
	require.Equal(t, 1, got.PagesFailed)
	require.Equal(t, 2, got.Succeeded)
	require.Equal(t, 1, got.Skipped)
	require.Equal(t, scrape.OutputPath, got.OutputPath)
	require.True(t, got.FinishedAt.Equal(scrape.FinishedAt))

	urls, err := ledger.RunArticles(ctx, got.ID)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://www.ptt.cc/bbs/Stock/M.1.A.html",
		"https://www.ptt.cc/bbs/Stock/M.2.A.html",
	}, urls)

	limited, err := ledger.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestLedgerInMemory(t *testing.T) {
	t.Parallel()

	ledger, err := OpenSQLiteLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	runs, err := ledger.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestNilLedgerIsNoop(t *testing.T) {
	t.Parallel()

	var ledger *SQLiteLedger
	require.NoError(t, ledger.RecordRun(context.Background(), domain.RunSummary{}, nil))
	runs, err := ledger.RecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, runs)
	require.NoError(t, ledger.Close())
}
