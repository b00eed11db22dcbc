package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"PTTSentiment/internal/domain"
)

var articleTimeLayouts = []string{
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan 2 15:04:05 2006",
	"2006/01/02 15:04:05",
	time.ANSIC,
}

// NormalizeIndexDate turns the "M/DD" shown on index pages into YYYY-MM-DD.
// The year comes from now; a date more than a day ahead of now belongs to the
// previous year, since index pages never list future posts.
func NormalizeIndexDate(raw string, now time.Time) (string, error) {
	month, day, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return "", fmt.Errorf("%w: index date %q", domain.ErrParse, raw)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return "", fmt.Errorf("%w: index date %q", domain.ErrParse, raw)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("%w: index date %q", domain.ErrParse, raw)
	}

	ref := domain.TruncateDay(now)
	candidate, ok := calendarDate(ref.Year(), m, d)
	if !ok {
		// 2/29 seen from a non-leap year belongs to the previous one
		candidate, ok = calendarDate(ref.Year()-1, m, d)
		if !ok {
			return "", fmt.Errorf("%w: index date %q", domain.ErrParse, raw)
		}
	}
	if candidate.After(ref.AddDate(0, 0, 1)) {
		candidate, ok = calendarDate(candidate.Year()-1, m, d)
		if !ok {
			return "", fmt.Errorf("%w: index date %q", domain.ErrParse, raw)
		}
	}
	return candidate.Format(domain.DateLayout), nil
}

// NormalizeArticleTime parses the 時間 metaline, e.g. "Mon Apr 14 09:12:34 2025".
func NormalizeArticleTime(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	collapsed := strings.Join(strings.Fields(value), " ")
	for _, layout := range articleTimeLayouts {
		for _, candidate := range []string{value, collapsed} {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return parsed.Format(domain.DateLayout), nil
			}
		}
	}
	return "", fmt.Errorf("%w: article time %q", domain.ErrParse, raw)
}

// ParseDay accepts YYYY-MM-DD, MM-DD or M/D; short forms take their year from now.
func ParseDay(raw string, now time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if t, err := time.Parse(domain.DateLayout, value); err == nil {
		return t, nil
	}
	normalized, err := NormalizeIndexDate(strings.ReplaceAll(value, "-", "/"), now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or MM-DD", raw)
	}
	return time.Parse(domain.DateLayout, normalized)
}

func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
