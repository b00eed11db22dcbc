package llm

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"PTTSentiment/internal/domain"
)

//go:embed prompts/default.txt
var defaultTemplate string

// Template tokens.
const (
	TokenArticles        = "{{articles}}"
	TokenDate            = "{{date}}"
	TokenBoard           = "{{board}}"
	TokenCount           = "{{count}}"
	TokenPreviousSummary = "{{previous_summary}}"
)

const previousSummaryHeading = "【前一日分析摘要】"

// PromptBuilder fills the prompt template with a batch of articles.
type PromptBuilder struct {
	template string
	system   string
	board    string
}

// NewPromptBuilder reads the template from path, or uses the built-in one when
// path is empty.
func NewPromptBuilder(path, system, board string) (*PromptBuilder, error) {
	tmpl := defaultTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", path, err)
		}
		tmpl = string(raw)
	}
	return &PromptBuilder{template: tmpl, system: system, board: board}, nil
}

// Build substitutes the tokens. Templates without {{articles}} get the article
// block appended, and templates without {{previous_summary}} get a non-empty
// summary prepended.
func (b *PromptBuilder) Build(articles []domain.Article, scope, previousSummary string) Prompt {
	block := ArticleBlock(articles)

	summary := ""
	if strings.TrimSpace(previousSummary) != "" {
		summary = previousSummaryHeading + "\n" + strings.TrimSpace(previousSummary)
	}

	user := strings.NewReplacer(
		TokenArticles, block,
		TokenDate, scope,
		TokenBoard, b.board,
		TokenCount, strconv.Itoa(len(articles)),
		TokenPreviousSummary, summary,
	).Replace(b.template)

	if !strings.Contains(b.template, TokenArticles) {
		user = strings.TrimRight(user, "\n") + "\n\n" + block
	}
	if summary != "" && !strings.Contains(b.template, TokenPreviousSummary) {
		user = summary + "\n\n" + user
	}

	return Prompt{
		System: b.system,
		User:   collapseBlankLines(user),
		Date:   scope,
	}
}

// ArticleBlock renders articles the way the prompt expects them.
func ArticleBlock(articles []domain.Article) string {
	var sb strings.Builder
	for i, a := range articles {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "【標題】%s\n【作者】%s\n【日期】%s\n【內文】%s\n【留言】%s\n---",
			a.Title, a.Author, a.Date, a.Content, commentLines(a.Comments))
	}
	return sb.String()
}

func commentLines(comments []domain.Comment) string {
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("%s %s: %s", c.Vote, c.Author, c.Text)))
	}
	return strings.Join(lines, "\n")
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}
