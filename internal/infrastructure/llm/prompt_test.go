package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPromptBuilderDefaultTemplate(t *testing.T) {
	t.Parallel()

	b, err := NewPromptBuilder("", "system", "Stock")
	require.NoError(t, err)

	prompt := b.Build(testArticles(), "2025-04-14", "")
	require.Equal(t, "system", prompt.System)
	require.Equal(t, "2025-04-14", prompt.Date)
	require.Contains(t, prompt.User, "PTT Stock 板於 2025-04-14 的 1 篇文章")
	require.Contains(t, prompt.User, "【標題】[標的] 2330 台積電 多\n【作者】trader\n【日期】2025-04-14\n【內文】法說會展望樂觀\n【留言】推 bull: 噴\n---")
	require.NotContains(t, prompt.User, "{{")
	require.NotContains(t, prompt.User, previousSummaryHeading)
	require.NotContains(t, prompt.User, "\n\n\n")
}

func TestPromptBuilderCustomTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("分析 {{board}} {{date}}"), 0o644))

	b, err := NewPromptBuilder(path, "", "Stock")
	require.NoError(t, err)

	prompt := b.Build(testArticles(), "2025-04-14", "昨日偏多")
	require.True(t, strings.HasPrefix(prompt.User, previousSummaryHeading+"\n昨日偏多\n\n分析 Stock 2025-04-14"), prompt.User)
	require.True(t, strings.HasSuffix(prompt.User, "---"), "article block appended")

	_, err = NewPromptBuilder(filepath.Join(t.TempDir(), "missing.txt"), "", "Stock")
	require.Error(t, err)
}
