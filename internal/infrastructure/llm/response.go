package llm

import (
	"regexp"
	"strings"

	"PTTSentiment/internal/domain"
)

type section int

const (
	sectionNone section = iota
	sectionSentiment
	sectionSectors
	sectionSummary
	sectionKeyPoints
)

// Labels are matched case-insensitively at the start of a line, after bullets
// and markdown emphasis are stripped.
var sectionKeys = []struct {
	key     string
	section section
}{
	{"市場情緒", sectionSentiment},
	{"整體情緒", sectionSentiment},
	{"情緒", sectionSentiment},
	{"sentiment", sectionSentiment},
	{"產業名稱", sectionSectors},
	{"相關產業", sectionSectors},
	{"產業", sectionSectors},
	{"sectors", sectionSectors},
	{"摘要", sectionSummary},
	{"summary", sectionSummary},
	{"rationale", sectionSummary},
	{"重點", sectionKeyPoints},
	{"關鍵重點", sectionKeyPoints},
	{"key points", sectionKeyPoints},
}

var (
	bulletExpr = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)、])\s*`)
	listSplit  = regexp.MustCompile(`\s*[,，、/;；]\s*`)
)

// Parsed holds the labelled sections found in a model reply. Missing sections
// stay empty.
type Parsed struct {
	Label     domain.SentimentLabel
	Rationale string
	Sectors   []string
	KeyPoints []string
}

// ParseResponse reads "label: value" lines out of free text. A key-points label
// with an empty value collects the bullet lines that follow it.
func ParseResponse(text string) Parsed {
	parsed := Parsed{Label: domain.SentimentUnknown}
	current := sectionNone

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := cleanLine(raw)
		if line == "" {
			continue
		}

		sec, value, ok := labelled(line)
		if !ok {
			if current == sectionKeyPoints && bulletExpr.MatchString(raw) {
				parsed.KeyPoints = append(parsed.KeyPoints, line)
				continue
			}
			if strings.HasPrefix(strings.TrimSpace(raw), "#") {
				current = sectionNone
			}
			continue
		}

		current = sec
		value = strings.TrimSpace(value)
		switch sec {
		case sectionSentiment:
			if parsed.Label == domain.SentimentUnknown {
				parsed.Label = labelFor(value)
			}
		case sectionSectors:
			parsed.Sectors = append(parsed.Sectors, splitList(value)...)
		case sectionSummary:
			if parsed.Rationale == "" {
				parsed.Rationale = unbracket(value)
			}
		case sectionKeyPoints:
			if value != "" {
				parsed.KeyPoints = append(parsed.KeyPoints, unbracket(value))
			}
		}
	}
	return parsed
}

func cleanLine(raw string) string {
	line := strings.ReplaceAll(raw, "**", "")
	line = bulletExpr.ReplaceAllString(line, "")
	line = strings.TrimLeft(line, "# ")
	return strings.TrimSpace(line)
}

func labelled(line string) (section, string, bool) {
	lower := strings.ToLower(line)
	for _, k := range sectionKeys {
		if !strings.HasPrefix(lower, k.key) {
			continue
		}
		rest := strings.TrimSpace(line[len(k.key):])
		for _, sep := range []string{"：", ":"} {
			if strings.HasPrefix(rest, sep) {
				return k.section, strings.TrimPrefix(rest, sep), true
			}
		}
	}
	return sectionNone, "", false
}

func labelFor(value string) domain.SentimentLabel {
	v := strings.ToLower(unbracket(value))
	switch {
	case v == "":
		return domain.SentimentUnknown
	case strings.Contains(v, "模擬") || strings.Contains(v, "simulated"):
		return domain.SentimentSimulated
	case strings.Contains(v, "交雜") || strings.Contains(v, "分歧") || strings.Contains(v, "mixed"):
		return domain.SentimentMixed
	}

	bull := strings.Contains(v, "多頭") || strings.Contains(v, "看多") || strings.Contains(v, "樂觀") || strings.Contains(v, "bull")
	bear := strings.Contains(v, "空頭") || strings.Contains(v, "看空") || strings.Contains(v, "悲觀") || strings.Contains(v, "bear")
	switch {
	case bull && bear:
		return domain.SentimentMixed
	case bull:
		return domain.SentimentBullish
	case bear:
		return domain.SentimentBearish
	case strings.Contains(v, "中性") || strings.Contains(v, "盤整") || strings.Contains(v, "觀望") || strings.Contains(v, "neutral"):
		return domain.SentimentNeutral
	}
	return domain.SentimentUnknown
}

func unbracket(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "[")
	value = strings.TrimSuffix(value, "]")
	value = strings.TrimPrefix(value, "【")
	value = strings.TrimSuffix(value, "】")
	return strings.TrimSpace(value)
}

func splitList(value string) []string {
	var out []string
	for _, item := range listSplit.Split(unbracket(value), -1) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
