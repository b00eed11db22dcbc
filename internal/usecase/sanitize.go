package usecase

import (
	"context"
	"log/slog"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

// Sanitize narrows a stored CSV to metadata columns and records the run.
type Sanitize struct {
	sanitizer ports.Sanitizer
	ledger    ports.RunLedger
	now       func() time.Time
	logger    *slog.Logger
}

// NewSanitize constructs the standalone sanitize use case.
func NewSanitize(sanitizer ports.Sanitizer, ledger ports.RunLedger, now func() time.Time, logger *slog.Logger) *Sanitize {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sanitize{sanitizer: sanitizer, ledger: ledger, now: now, logger: logger}
}

// Run sanitizes path. Missing files and foreign schemas are errors.
func (s *Sanitize) Run(ctx context.Context, path string) (domain.RunSummary, error) {
	run := domain.RunSummary{
		Kind:       domain.RunSanitize,
		StartedAt:  s.now(),
		OutputPath: path,
	}

	rows, err := s.sanitizer.Sanitize(path)
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = domain.StatusFailed
		record(ctx, s.ledger, s.logger, run, nil)
		return run, err
	}

	run.Succeeded = rows
	run.Status = domain.StatusComplete
	s.logger.Info("file sanitized", "path", path, "rows", rows)
	record(ctx, s.ledger, s.logger, run, nil)
	return run, nil
}
