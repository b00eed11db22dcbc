package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
)

const articleURL = "https://www.ptt.cc/bbs/Stock/M.1744593154.A.1.html"

func TestArticleParserParse(t *testing.T) {
	t.Parallel()

	parsed, err := ArticleParser{MaxContentRunes: 2000}.Parse(strings.NewReader(articleFixture), articleURL, ArticleHint{})
	require.NoError(t, err)

	want := domain.Article{
		Title:   "[標的] 2330 台積電 多",
		Date:    "2025-04-14",
		Author:  "trader",
		Board:   "Stock",
		URL:     articleURL,
		Content: "台積電法說會後展望樂觀\nAI 需求強勁",
		Comments: []domain.Comment{
			{Author: "bull", Text: "噴", Vote: domain.VoteUp},
			{Author: "bear", Text: "要跌了", Vote: domain.VoteDown},
			{Author: "calm", Text: "觀望: 等財報", Vote: domain.VoteNeutral},
		},
	}
	if diff := cmp.Diff(want, parsed.Article); diff != "" {
		t.Fatalf("article mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, parsed.Defaulted)
	require.Empty(t, parsed.FromHint)
}

func TestArticleParserFallsBackToHint(t *testing.T) {
	t.Parallel()

	// metalines edited away by the author
	html := `<html><body><div id="main-content">只剩內文</div></body></html>`
	parsed, err := ArticleParser{}.Parse(strings.NewReader(html), articleURL, ArticleHint{
		Title: "[心得] 存股", Author: "saver", Date: "2025-04-13",
	})
	require.NoError(t, err)

	require.Equal(t, "[心得] 存股", parsed.Article.Title)
	require.Equal(t, "2025-04-13", parsed.Article.Date)
	require.Equal(t, "saver", parsed.Article.Author)
	require.Equal(t, "只剩內文", parsed.Article.Content)
	require.Empty(t, parsed.Article.Comments)
	require.ElementsMatch(t, []string{FieldTitle, FieldDate}, parsed.FromHint)
	require.ElementsMatch(t, []string{FieldBoard, FieldComments}, parsed.Defaulted)
}

func TestArticleParserMissingRequiredFields(t *testing.T) {
	t.Parallel()

	html := `<html><body><div id="main-content">沒有標題</div></body></html>`

	_, err := ArticleParser{}.Parse(strings.NewReader(html), articleURL, ArticleHint{})
	require.True(t, errors.Is(err, domain.ErrParse), "missing title: %v", err)

	_, err = ArticleParser{}.Parse(strings.NewReader(html), articleURL, ArticleHint{Title: "只有標題"})
	require.True(t, errors.Is(err, domain.ErrParse), "missing date: %v", err)

	_, err = ArticleParser{}.Parse(strings.NewReader(articleFixture), "", ArticleHint{})
	require.True(t, errors.Is(err, domain.ErrParse), "missing url: %v", err)
}

func TestArticleParserTruncatesContent(t *testing.T) {
	t.Parallel()

	parsed, err := ArticleParser{MaxContentRunes: 5}.Parse(strings.NewReader(articleFixture), articleURL, ArticleHint{})
	require.NoError(t, err)
	require.Equal(t, "台積電法說"+truncatedMarker, parsed.Article.Content)
}
