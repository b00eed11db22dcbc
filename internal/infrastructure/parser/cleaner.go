package parser

import (
	"regexp"
	"strings"
)

const truncatedMarker = "\n...（已截斷）"

var urlLineExpr = regexp.MustCompile(`^(※\s*)?(網址|文章網址)[:：]?\s*https?://`)

// CleanContent normalises an article body: the text before the "--" signature
// separator and the text after it are deduplicated line by line, URL lines and
// sign-off lines are dropped, and the result is capped at maxRunes runes.
// maxRunes <= 0 disables the cap.
func CleanContent(raw, articleURL string, maxRunes int) string {
	body, reply, _ := strings.Cut(raw, "--\n")

	main := uniqueLines(body, func(line string) bool {
		return urlLineExpr.MatchString(line) || (articleURL != "" && line == articleURL)
	})
	tail := uniqueLines(reply, func(line string) bool {
		return strings.HasPrefix(line, "※ 發信站:") ||
			strings.HasPrefix(line, "◆ From:") ||
			urlLineExpr.MatchString(line) ||
			(articleURL != "" && line == articleURL)
	})

	cleaned := strings.Join(main, "\n")
	if len(tail) > 0 {
		cleaned += "\n--\n" + strings.Join(tail, "\n")
	}
	cleaned = strings.TrimSpace(cleaned)

	if maxRunes > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxRunes {
			cleaned = string(runes[:maxRunes]) + truncatedMarker
		}
	}
	return cleaned
}

func uniqueLines(text string, drop func(string) bool) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || drop(line) {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
