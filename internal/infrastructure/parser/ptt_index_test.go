package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
)

func TestParseIndex(t *testing.T) {
	t.Parallel()

	html := indexHTML("/bbs/Stock/index7001.html",
		[]row{
			{title: "[新聞] 台股收盤", href: "/bbs/Stock/M.1.A.AAA.html", author: "reporter", date: " 4/14"},
			{author: "ghost", date: " 4/14"},
			{title: "[標的] 2330 多", href: "/bbs/Stock/M.2.A.BBB.html", author: "trader", date: " 4/14"},
		},
		[]row{
			{title: "[公告] 板規", href: "/bbs/Stock/M.0.A.000.html", author: "admin", date: " 1/01"},
		},
	)

	page, err := ParseIndex(strings.NewReader(html), boardIndex)
	require.NoError(t, err)

	want := IndexPage{
		Entries: []IndexEntry{
			{Title: "[新聞] 台股收盤", URL: boardBase + "/bbs/Stock/M.1.A.AAA.html", Author: "reporter", RawDate: "4/14"},
			{Title: "[標的] 2330 多", URL: boardBase + "/bbs/Stock/M.2.A.BBB.html", Author: "trader", RawDate: "4/14"},
			{Title: "[公告] 板規", URL: boardBase + "/bbs/Stock/M.0.A.000.html", Author: "admin", RawDate: "1/01", Pinned: true},
		},
		PrevURL: boardBase + "/bbs/Stock/index7001.html",
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Fatalf("index page mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIndexOldestPageHasNoPrevious(t *testing.T) {
	t.Parallel()

	html := indexHTML("", []row{{title: "first", href: "/bbs/Stock/M.1.A.html", author: "a", date: "1/02"}}, nil)
	page, err := ParseIndex(strings.NewReader(html), boardBase+"/bbs/Stock/index1.html")
	require.NoError(t, err)
	require.Empty(t, page.PrevURL)
	require.Len(t, page.Entries, 1)
}

func TestParseIndexRejectsForeignPage(t *testing.T) {
	t.Parallel()

	_, err := ParseIndex(strings.NewReader(`<html><body><form action="/ask/over18"></form></body></html>`), boardIndex)
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrParse))
}

func TestPreviousIndexURL(t *testing.T) {
	t.Parallel()

	prev, ok := PreviousIndexURL(boardBase + "/bbs/Stock/index7001.html")
	require.True(t, ok)
	require.Equal(t, boardBase+"/bbs/Stock/index7000.html", prev)

	_, ok = PreviousIndexURL(boardIndex)
	require.False(t, ok, "newest page has no number")

	_, ok = PreviousIndexURL(boardBase + "/bbs/Stock/index1.html")
	require.False(t, ok, "first page has no predecessor")
}
