package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/ports"
)

const (
	generatedLayout = "2006-01-02 15:04:05"
	fileStampLayout = "20060102-1504"

	aggregateHeading = "## 整體情緒 (Aggregate Sentiment)"
	breakdownHeading = "## 分析明細 (Breakdown)"
)

// Markdown renders sentiment results into a report document.
type Markdown struct {
	prefix   string
	template *template.Template
}

var _ ports.Reporter = (*Markdown)(nil)

// NewMarkdown builds a renderer; board names the report files.
func NewMarkdown(board string) (*Markdown, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &Markdown{
		prefix:   "ptt_" + strings.ToLower(board) + "_sentiment_",
		template: tmpl,
	}, nil
}

// LabelCount is one row of the aggregate table.
type LabelCount struct {
	Label    domain.SentimentLabel
	Batches  int
	Articles int
}

// SectorCount is how often a sector was named across results.
type SectorCount struct {
	Name  string
	Count int
}

type reportData struct {
	Meta        domain.ReportMeta
	GeneratedAt string
	Dominant    domain.SentimentLabel
	Labels      []LabelCount
	Sectors     []SectorCount
	Simulated   int
	Results     []resultData
}

type resultData struct {
	Index int
	domain.SentimentResult
}

// Render is a pure function of its inputs.
func (m *Markdown) Render(results []domain.SentimentResult, meta domain.ReportMeta) (string, error) {
	labels := Tally(results)
	data := reportData{
		Meta:        meta,
		GeneratedAt: meta.GeneratedAt.Format(generatedLayout),
		Dominant:    Dominant(labels),
		Labels:      labels,
		Sectors:     sectors(results),
	}
	for i, r := range results {
		if r.Simulated {
			data.Simulated++
		}
		data.Results = append(data.Results, resultData{Index: i + 1, SentimentResult: r})
	}

	var buf bytes.Buffer
	if err := m.template.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Tally counts results and covered articles per label, in domain.Labels order.
// Labels with no results are omitted.
func Tally(results []domain.SentimentResult) []LabelCount {
	byLabel := map[domain.SentimentLabel]*LabelCount{}
	for _, r := range results {
		c, ok := byLabel[r.Label]
		if !ok {
			c = &LabelCount{Label: r.Label}
			byLabel[r.Label] = c
		}
		c.Batches++
		c.Articles += r.Covered()
	}

	var out []LabelCount
	for _, label := range domain.Labels() {
		if c, ok := byLabel[label]; ok {
			out = append(out, *c)
		}
	}
	return out
}

// Dominant is the label covering the most articles; ties go to the earlier label.
func Dominant(labels []LabelCount) domain.SentimentLabel {
	best := domain.SentimentUnknown
	top := -1
	for _, c := range labels {
		if c.Articles > top {
			best, top = c.Label, c.Articles
		}
	}
	return best
}

func sectors(results []domain.SentimentResult) []SectorCount {
	counts := map[string]int{}
	for _, r := range results {
		for _, s := range r.Sectors {
			counts[s]++
		}
	}
	out := make([]SectorCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, SectorCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// DefaultPath derives the report file name from scope and generation time.
func (m *Markdown) DefaultPath(dir, scope string, generatedAt time.Time) string {
	return filepath.Join(dir, m.prefix+scope+"_"+generatedAt.Format(fileStampLayout)+".md")
}

// Previous finds the newest report written for the day before day.
func (m *Markdown) Previous(dir string, day time.Time) (string, bool) {
	prev := domain.TruncateDay(day).AddDate(0, 0, -1).Format(domain.DateLayout)
	matches, err := filepath.Glob(filepath.Join(dir, m.prefix+prev+"_*.md"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches[0], true
}

// Write stores markdown at path.
func (m *Markdown) Write(path, markdown string) error {
	return Write(path, markdown)
}

// AggregateSection extracts the aggregate block of a rendered report, used as
// context for the next day's prompt. Unrecognised documents are returned trimmed.
func AggregateSection(markdown string) string {
	start := strings.Index(markdown, aggregateHeading)
	if start < 0 {
		return strings.TrimSpace(markdown)
	}
	section := markdown[start+len(aggregateHeading):]
	if end := strings.Index(section, breakdownHeading); end >= 0 {
		section = section[:end]
	}
	return strings.TrimSpace(section)
}

// Write stores markdown at path, creating the directory.
func Write(path, markdown string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

const reportTemplate = `# PTT {{.Meta.Board}} Sentiment Analysis
- 分析目標日期 (Target Day): {{.Meta.Scope}}
- 分析執行時間 (Analysis Time): {{.GeneratedAt}}
{{- if .Meta.ScannedAt}}
- 資料抓取時間 (Scanned At): {{.Meta.ScannedAt}}
{{- end}}
- 文章數 (Articles): {{.Meta.Articles}}
{{- if .Simulated}}

> 注意：{{.Simulated}} 筆結果為本地模擬，未經語言模型分析。
{{- end}}

## 整體情緒 (Aggregate Sentiment)
- 主要情緒 (Dominant): {{.Dominant}}

| 情緒 (Label) | 批次 (Batches) | 文章 (Articles) |
|---|---|---|
{{- range .Labels}}
| {{.Label}} | {{.Batches}} | {{.Articles}} |
{{- end}}
{{- if .Sectors}}

- 產業 (Sectors):{{range $i, $s := .Sectors}}{{if $i}},{{end}} {{$s.Name}} ({{$s.Count}}){{end}}
{{- end}}

## 分析明細 (Breakdown)
{{- range .Results}}

### {{.Index}}. {{.Label}} · {{.Provider}}/{{.Model}}
- 文章數 (Articles): {{len .Subjects}}
{{- if .Rationale}}
- 摘要 (Summary): {{.Rationale}}
{{- end}}
{{- if .Sectors}}
- 產業 (Sectors): {{join .Sectors ", "}}
{{- end}}
{{- if .KeyPoints}}
- 重點 (Key Points):
{{- range .KeyPoints}}
  - {{.}}
{{- end}}
{{- end}}
{{- if .FallbackReason}}
- 模擬原因 (Fallback): {{.FallbackReason}}
{{- end}}
{{- if .Subjects}}
- 文章 (Articles):
{{- range .Subjects}}
  - [{{.Title}}]({{.URL}}) {{.Date}}
{{- end}}
{{- end}}
{{- if .Raw}}

#### 原始回應 (Raw Response)

{{.Raw}}
{{- end}}
{{- end}}

---
來源檔案 (Source): {{.Meta.SourceFile}}
`
