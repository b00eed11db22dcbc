package csvstore

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// Sanitizer narrows article files to SanitizedColumns in place.
type Sanitizer struct {
	logger *slog.Logger
}

var _ ports.Sanitizer = (*Sanitizer)(nil)

// NewSanitizer builds a Sanitizer.
func NewSanitizer(logger *slog.Logger) *Sanitizer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sanitizer{logger: logger}
}

// Sanitize rewrites path keeping only title, date, url and board, and returns
// the number of rows. Row order, row count and leading meta lines survive.
// A file that is already sanitized is left untouched.
func (s *Sanitizer) Sanitize(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("sanitize %s: %w", path, err)
	}

	table, err := readTable(path)
	if err != nil {
		return 0, err
	}
	if _, err := table.require(path, SanitizedColumns...); err != nil {
		return 0, err
	}

	if strings.Join(table.header, ",") == strings.Join(SanitizedColumns, ",") {
		s.logger.Info("already sanitized", "path", path, "rows", len(table.rows))
		return len(table.rows), nil
	}

	tmp := strings.TrimSuffix(path, ".csv") + sanitizedExt
	if err := writeSanitized(tmp, table); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("replace %s: %w", path, err)
	}

	s.logger.Info("sanitized", "path", path, "rows", len(table.rows), "dropped_columns", len(table.header)-len(SanitizedColumns))
	return len(table.rows), nil
}

func writeSanitized(path string, t table) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	for _, line := range t.meta {
		if _, err := fmt.Fprintln(file, line); err != nil {
			return fmt.Errorf("write meta %s: %w", path, err)
		}
	}

	w := csv.NewWriter(file)
	if err := w.Write(SanitizedColumns); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	record := make([]string, len(SanitizedColumns))
	for _, rec := range t.rows {
		for i, column := range SanitizedColumns {
			record[i] = t.field(rec, column)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Sync()
}
