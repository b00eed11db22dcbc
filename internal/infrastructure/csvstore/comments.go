package csvstore

import (
	"strings"

	"PTTSentiment/internal/domain"
)

var fieldEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// EncodeComments packs comments into one CSV cell: a line per comment holding
// vote, author and text separated by tabs. Backslash, tab and line breaks
// inside a field are backslash-escaped.
func EncodeComments(comments []domain.Comment) string {
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, fieldEscaper.Replace(string(c.Vote))+"\t"+
			fieldEscaper.Replace(c.Author)+"\t"+
			fieldEscaper.Replace(c.Text))
	}
	return strings.Join(lines, "\n")
}

// DecodeComments reverses EncodeComments. Lines with fewer than three fields
// are kept as text-only comments.
func DecodeComments(blob string) []domain.Comment {
	if strings.TrimSpace(blob) == "" {
		return nil
	}
	var out []domain.Comment
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			out = append(out, domain.Comment{Text: unescapeField(line)})
			continue
		}
		out = append(out, domain.Comment{
			Vote:   domain.Vote(unescapeField(parts[0])),
			Author: unescapeField(parts[1]),
			Text:   unescapeField(parts[2]),
		})
	}
	return out
}

func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
