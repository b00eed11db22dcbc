package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/ports"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	scope TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	pages_visited INTEGER NOT NULL DEFAULT 0,
	pages_failed INTEGER NOT NULL DEFAULT 0,
	succeeded INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	output_path TEXT,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_articles (
	run_id TEXT NOT NULL REFERENCES runs(id),
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	date TEXT NOT NULL,
	PRIMARY KEY (run_id, url)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`

// SQLiteLedger keeps an audit trail of pipeline runs in a local sqlite file.
type SQLiteLedger struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

var _ ports.RunLedger = (*SQLiteLedger)(nil)

// OpenSQLiteLedger opens (and migrates) the ledger at path. ":memory:" is accepted.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// one connection keeps :memory: databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}

	return NewSQLiteLedger(db), nil
}

// NewSQLiteLedger wires an already migrated sql.DB.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Close releases the database handle.
func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// RecordRun stores the run and the articles it touched in one transaction.
// A missing ID is generated.
func (l *SQLiteLedger) RecordRun(ctx context.Context, run domain.RunSummary, articles []domain.Article) error {
	if l == nil || l.db == nil {
		return nil
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	_, err = l.qb.Insert("runs").
		Columns("id", "kind", "scope", "started_at", "finished_at",
			"pages_visited", "pages_failed", "succeeded", "skipped", "output_path", "status").
		Values(run.ID, string(run.Kind), run.Scope, run.StartedAt.UTC(), run.FinishedAt.UTC(),
			run.PagesVisited, run.PagesFailed, run.Succeeded, run.Skipped, run.OutputPath, string(run.Status)).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	if len(articles) > 0 {
		insert := l.qb.Insert("run_articles").
			Options("OR IGNORE").
			Columns("run_id", "url", "title", "date")
		for _, a := range articles {
			insert = insert.Values(run.ID, a.URL, a.Title, a.Date)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert run articles: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (l *SQLiteLedger) RecentRuns(ctx context.Context, limit uint64) ([]domain.RunSummary, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	query := l.qb.Select("id", "kind", "scope", "started_at", "finished_at",
		"pages_visited", "pages_failed", "succeeded", "skipped", "output_path", "status").
		From("runs").
		OrderBy("started_at DESC", "id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.RunWith(l.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var result []domain.RunSummary
	for rows.Next() {
		var (
			run        domain.RunSummary
			kind       string
			status     string
			outputPath sql.NullString
			started    time.Time
			finished   time.Time
		)
		if err := rows.Scan(&run.ID, &kind, &run.Scope, &started, &finished,
			&run.PagesVisited, &run.PagesFailed, &run.Succeeded, &run.Skipped, &outputPath, &status); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Kind = domain.RunKind(kind)
		run.Status = domain.RunStatus(status)
		run.OutputPath = outputPath.String
		run.StartedAt = started
		run.FinishedAt = finished
		result = append(result, run)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// RunArticles lists the article URLs recorded for a run.
func (l *SQLiteLedger) RunArticles(ctx context.Context, runID string) ([]string, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	rows, err := l.qb.Select("url").
		From("run_articles").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("date", "url").
		RunWith(l.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query run articles: %w", err)
	}

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan url: %w", err)
		}
		urls = append(urls, url)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return urls, nil
}
