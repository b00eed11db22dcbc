package csvstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
)

var fixedNow = func() time.Time { return time.Date(2025, time.April, 14, 22, 30, 5, 0, time.UTC) }

func sampleArticle(n string) domain.Article {
	return domain.Article{
		Title:   "[標的] " + n + " 多",
		Date:    "2025-04-14",
		Author:  "trader" + n,
		Board:   "Stock",
		URL:     "https://www.ptt.cc/bbs/Stock/M." + n + ".A.html",
		Content: "內文 " + n,
		Comments: []domain.Comment{
			{Author: "bull", Text: "噴", Vote: domain.VoteUp},
		},
	}
}

func TestStoreRoundTripsAwkwardText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ptt_stock_articles_2025-04-14.csv")
	store := NewStore("Stock", fixedNow, nil)

	article := domain.Article{
		Title:   `"引號", 逗號`,
		Date:    "2025-04-14",
		Author:  "trader",
		Board:   "Stock",
		URL:     "https://www.ptt.cc/bbs/Stock/M.1.A.html",
		Content: "第一行, 有逗號\n第二行 \"quoted\"\n第三行",
		Comments: []domain.Comment{
			{Author: "bull", Text: "漲, 漲\n再漲", Vote: domain.VoteUp},
			{Author: "bear", Text: `反斜線 \n 不是換行`, Vote: domain.VoteDown},
			{Author: "tab", Text: "a\tb", Vote: domain.VoteNeutral},
		},
	}
	crlf := article
	crlf.URL = "https://www.ptt.cc/bbs/Stock/M.2.A.html"
	crlf.Title = "標題\r\n換行"
	crlf.Content = "line1\r\nline2, x\rline3"
	require.NoError(t, store.Append(path, []domain.Article{article, crlf}))

	want := crlf
	want.Title = "標題\n換行"
	want.Content = "line1\nline2, x\nline3"

	loaded, err := store.Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff([]domain.Article{article, want}, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	again := filepath.Join(t.TempDir(), "again.csv")
	require.NoError(t, store.Append(again, loaded))
	reloaded, err := store.Load(again)
	require.NoError(t, err)
	if diff := cmp.Diff(loaded, reloaded); diff != "" {
		t.Fatalf("second round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "ptt_stock_articles_2025-04-14.csv")
	store := NewStore("Stock", fixedNow, nil)

	require.NoError(t, store.Append(path, []domain.Article{sampleArticle("1")}))
	require.NoError(t, store.Append(path, []domain.Article{sampleArticle("2"), sampleArticle("3")}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	require.True(t, strings.HasPrefix(text, "# scanned_at: 2025-04-14 22:30:05\n"))
	require.Equal(t, 1, strings.Count(text, strings.Join(FullColumns, ",")))
	require.Equal(t, 1, strings.Count(text, "# scanned_at"))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	require.Equal(t, sampleArticle("3").URL, loaded[2].URL)

	stamp, err := store.ScannedAt(path)
	require.NoError(t, err)
	require.Equal(t, "2025-04-14 22:30:05", stamp)
}

func TestStoreLoadRejectsForeignSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\n2330,900\n"), 0o644))

	_, err := NewStore("Stock", fixedNow, nil).Load(path)
	require.True(t, errors.Is(err, domain.ErrSchema), "got %v", err)
}

func TestStoreRefusesAppendToSanitizedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ptt_stock_articles_2025-04-14.csv")
	store := NewStore("Stock", fixedNow, nil)
	require.NoError(t, store.Append(path, []domain.Article{sampleArticle("1")}))

	_, err := NewSanitizer(nil).Sanitize(path)
	require.NoError(t, err)

	err = store.Append(path, []domain.Article{sampleArticle("2")})
	require.True(t, errors.Is(err, domain.ErrSchema), "got %v", err)
}

func TestStoreLatestAndFileName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore("Stock", fixedNow, nil)

	window := domain.DateWindow{
		From: time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.April, 14, 0, 0, 0, 0, time.UTC),
	}
	require.Equal(t, "ptt_stock_articles_2025-04-10--2025-04-14.csv", store.FileName(window))

	_, err := store.Latest(dir)
	require.True(t, errors.Is(err, os.ErrNotExist))

	older := filepath.Join(dir, "ptt_stock_articles_2025-04-13.csv")
	newer := filepath.Join(dir, "ptt_stock_articles_2025-04-12.csv")
	leftover := filepath.Join(dir, "ptt_stock_articles_2025-04-14.sanitized.csv")
	for _, p := range []string{older, newer, leftover} {
		require.NoError(t, store.Append(p, []domain.Article{sampleArticle("1")}))
	}
	base := time.Now()
	require.NoError(t, os.Chtimes(older, base.Add(-2*time.Hour), base.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(newer, base.Add(-time.Hour), base.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(leftover, base, base))

	latest, err := store.Latest(dir)
	require.NoError(t, err)
	require.Equal(t, newer, latest)

	require.NoError(t, store.Reset(newer))
	require.NoError(t, store.Reset(newer), "reset of a missing file is a no-op")
	latest, err = store.Latest(dir)
	require.NoError(t, err)
	require.Equal(t, older, latest)
}

func TestStoreAppendReadsOnlyHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ptt_stock_articles_2025-04-14.csv")
	store := NewStore("Stock", fixedNow, nil)
	require.NoError(t, store.Append(path, []domain.Article{sampleArticle("1")}))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = file.WriteString("ragged,row\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.NoError(t, store.Append(path, []domain.Article{sampleArticle("2")}), "existing rows are not parsed on append")

	_, err = store.Load(path)
	require.Error(t, err)
}

func TestStoreWindowFromFileName(t *testing.T) {
	t.Parallel()

	store := NewStore("Stock", fixedNow, nil)
	day := time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC)

	window, ok := store.Window(filepath.Join("articles", "ptt_stock_articles_2025-04-10.csv"))
	require.True(t, ok)
	require.Equal(t, domain.SingleDay(day), window)

	window, ok = store.Window("ptt_stock_articles_2025-04-10--2025-04-14.sanitized.csv")
	require.True(t, ok)
	require.Equal(t, "2025-04-10--2025-04-14", window.Scope())

	for _, name := range []string{"other.csv", "ptt_stock_articles_latest.csv", "ptt_stock_articles_2025-04-14--2025-04-10.csv"} {
		_, ok := store.Window(name)
		require.False(t, ok, name)
	}
}
