package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.April, 14, 22, 0, 0, 0, time.UTC)

	cases := []struct {
		name            string
		date, from, to  string
		wantScope       string
		wantErrContains string
	}{
		{name: "defaults to today", wantScope: "2025-04-14"},
		{name: "month-day", date: "04-10", wantScope: "2025-04-10"},
		{name: "full date", date: "2024-12-31", wantScope: "2024-12-31"},
		{name: "short date later than today is last year", date: "12-31", wantScope: "2024-12-31"},
		{name: "range", from: "04-10", to: "2025-04-12", wantScope: "2025-04-10--2025-04-12"},
		{name: "open range ends today", from: "04-12", wantScope: "2025-04-12--2025-04-14"},
		{name: "reversed range", from: "04-12", to: "04-10", wantErrContains: "is after"},
		{name: "to without from", to: "04-12", wantErrContains: "needs --from"},
		{name: "date with range", date: "04-12", from: "04-10", wantErrContains: "cannot be combined"},
		{name: "garbage", date: "yesterday", wantErrContains: "invalid date"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			window, err := resolveWindow(tc.date, tc.from, tc.to, now)
			if tc.wantErrContains != "" {
				require.ErrorContains(t, err, tc.wantErrContains)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantScope, window.Scope())
		})
	}
}
