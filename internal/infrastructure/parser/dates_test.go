package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"PTTSentiment/internal/domain"
)

func TestNormalizeIndexDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.April, 14, 22, 30, 0, 0, time.UTC)
	newYear := time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		raw  string
		now  time.Time
		want string
	}{
		{raw: " 4/14", now: now, want: "2025-04-14"},
		{raw: "4/15", now: now, want: "2025-04-15"},
		{raw: "12/31", now: newYear, want: "2024-12-31"},
		{raw: "1/02", now: newYear, want: "2025-01-02"},
		{raw: "2/29", now: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), want: "2024-02-29"},
	}
	for _, tc := range cases {
		got, err := NormalizeIndexDate(tc.raw, tc.now)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, got, tc.raw)
	}

	for _, raw := range []string{"", "4-14", "13/01", "x/y"} {
		_, err := NormalizeIndexDate(raw, now)
		require.True(t, errors.Is(err, domain.ErrParse), "raw %q: %v", raw, err)
	}
}

func TestNormalizeArticleTime(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]string{
		"Mon Apr 14 09:12:34 2025": "2025-04-14",
		"Wed Jan  1 00:00:01 2025": "2025-01-01",
		"Wed Jan 1 00:00:01 2025":  "2025-01-01",
		"2025/03/05 10:00:00":      "2025-03-05",
	} {
		got, err := NormalizeArticleTime(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	_, err := NormalizeArticleTime("yesterday")
	require.True(t, errors.Is(err, domain.ErrParse))
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.April, 14, 0, 0, 0, 0, time.UTC)

	day, err := ParseDay("2025-04-10", now)
	require.NoError(t, err)
	require.Equal(t, "2025-04-10", day.Format(domain.DateLayout))

	day, err = ParseDay("04-10", now)
	require.NoError(t, err)
	require.Equal(t, "2025-04-10", day.Format(domain.DateLayout))

	_, err = ParseDay("tomorrow", now)
	require.Error(t, err)
}
