package csvstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"PTTSentiment/internal/domain"
	"PTTSentiment/internal/logging"
	"PTTSentiment/internal/ports"
)

const (
	metaPrefix     = "#"
	scannedAtKey   = "scanned_at"
	scannedAtStamp = "2006-01-02 15:04:05"
	sanitizedExt   = ".sanitized.csv"
)

// FullColumns is the column order of an article file.
var FullColumns = []string{"title", "date", "author", "board", "url", "content", "comments"}

// SanitizedColumns is what the sanitizer keeps.
var SanitizedColumns = []string{"title", "date", "url", "board"}

// Store appends articles to per-scope CSV files and reads them back.
// Line breaks in text fields are stored as "\n"; "\r\n" and a bare "\r" are
// normalized on write, since encoding/csv reads them back that way anyway.
type Store struct {
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.ArticleStore = (*Store)(nil)

// NewStore names files after board; now stamps the scanned_at line of new files.
func NewStore(board string, now func() time.Time, logger *slog.Logger) *Store {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		prefix: "ptt_" + strings.ToLower(board) + "_articles_",
		now:    now,
		logger: logger,
	}
}

// FileName is the file a scrape of window writes to.
func (s *Store) FileName(window domain.DateWindow) string {
	return s.prefix + window.Scope() + ".csv"
}

// Latest returns the most recently modified article file in dir.
func (s *Store) Latest(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, s.prefix+"*.csv"))
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var found []candidate
	for _, path := range matches {
		if strings.HasSuffix(path, sanitizedExt) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, candidate{path: path, modTime: info.ModTime()})
	}
	if len(found) == 0 {
		return "", fmt.Errorf("no %s*.csv in %s: %w", s.prefix, dir, os.ErrNotExist)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].modTime.Equal(found[j].modTime) {
			return found[i].path > found[j].path
		}
		return found[i].modTime.After(found[j].modTime)
	})
	return found[0].path, nil
}

// Reset removes path so the next Append starts a fresh file.
func (s *Store) Reset(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reset %s: %w", path, err)
	}
	return nil
}

// Append writes articles to path. A new or empty file first gets the scanned_at
// line and the header; later appends write rows only.
func (s *Store) Append(path string, articles []domain.Article) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	fresh, err := s.needsHeader(path)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if fresh {
		if _, err := fmt.Fprintf(file, "%s %s: %s\n", metaPrefix, scannedAtKey, s.now().Format(scannedAtStamp)); err != nil {
			return fmt.Errorf("write meta %s: %w", path, err)
		}
	}

	w := csv.NewWriter(file)
	if fresh {
		if err := w.Write(FullColumns); err != nil {
			return fmt.Errorf("write header %s: %w", path, err)
		}
	}
	for _, a := range articles {
		if err := w.Write(fullRecord(a)); err != nil {
			return fmt.Errorf("write %s: %w", a.URL, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return file.Sync()
}

// needsHeader reports whether path is absent or empty, and refuses to append
// full rows to a file that holds another schema.
func (s *Store) needsHeader(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return true, nil
	}

	table, err := readHeader(path)
	if err != nil {
		return false, err
	}
	if strings.Join(table.header, ",") != strings.Join(FullColumns, ",") {
		return false, fmt.Errorf("%w: %s has columns %v, cannot append full articles", domain.ErrSchema, path, table.header)
	}
	return false, nil
}

// Load reads path in either the full or the sanitized schema.
func (s *Store) Load(path string) ([]domain.Article, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}

	idx, err := table.require(path, "title", "date", "url", "board")
	if err != nil {
		return nil, err
	}
	_, hasContent := table.index["content"]
	_, hasComments := table.index["comments"]
	sanitized := !hasContent && !hasComments

	articles := make([]domain.Article, 0, len(table.rows))
	for line, rec := range table.rows {
		a := domain.Article{
			Title:     rec[idx["title"]],
			Date:      rec[idx["date"]],
			URL:       rec[idx["url"]],
			Board:     rec[idx["board"]],
			Author:    table.field(rec, "author"),
			Content:   table.field(rec, "content"),
			Comments:  DecodeComments(table.field(rec, "comments")),
			Sanitized: sanitized,
		}
		if strings.TrimSpace(a.URL) == "" {
			s.logger.Warn("skip row without url", "path", path, "row", line+1)
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// ScannedAt returns the scanned_at stamp of path, empty when absent.
func (s *Store) ScannedAt(path string) (string, error) {
	table, err := readHeader(path)
	if err != nil {
		return "", err
	}
	for _, line := range table.meta {
		body := strings.TrimSpace(strings.TrimPrefix(line, metaPrefix))
		if key, value, ok := strings.Cut(body, ":"); ok && strings.TrimSpace(key) == scannedAtKey {
			return strings.TrimSpace(value), nil
		}
	}
	return "", nil
}

// Window recovers the scope encoded in an article file name.
func (s *Store) Window(path string) (domain.DateWindow, bool) {
	name := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".csv"), ".sanitized")
	scope, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return domain.DateWindow{}, false
	}
	from, to, ranged := strings.Cut(scope, "--")
	if !ranged {
		to = from
	}
	fromDay, err := time.Parse(domain.DateLayout, from)
	if err != nil {
		return domain.DateWindow{}, false
	}
	toDay, err := time.Parse(domain.DateLayout, to)
	if err != nil || toDay.Before(fromDay) {
		return domain.DateWindow{}, false
	}
	return domain.DateWindow{From: fromDay, To: toDay}, true
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func fullRecord(a domain.Article) []string {
	return []string{
		lineBreaks.Replace(a.Title),
		a.Date,
		lineBreaks.Replace(a.Author),
		a.Board,
		a.URL,
		lineBreaks.Replace(a.Content),
		EncodeComments(a.Comments),
	}
}

// table is a CSV file split into its leading meta lines, header and records.
type table struct {
	meta   []string
	header []string
	index  map[string]int
	rows   [][]string
}

func readTable(path string) (table, error) {
	file, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	t, r, err := readHead(file, path)
	if err != nil {
		return table{}, err
	}
	t.rows, err = r.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// readHeader reads the meta lines and header of path without its records.
func readHeader(path string) (table, error) {
	file, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	t, _, err := readHead(file, path)
	return t, err
}

// readHead consumes the meta lines and header of src and returns a reader
// positioned at the first record.
func readHead(src io.Reader, path string) (table, *csv.Reader, error) {
	br := bufio.NewReader(src)
	var t table
	for {
		peek, err := br.Peek(1)
		if err != nil || string(peek) != metaPrefix {
			break
		}
		line, err := br.ReadString('\n')
		t.meta = append(t.meta, strings.TrimRight(line, "\r\n"))
		if err != nil {
			break
		}
	}

	r := csv.NewReader(br)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{}, nil, fmt.Errorf("%w: %s has no header", domain.ErrSchema, path)
	}
	if err != nil {
		return table{}, nil, fmt.Errorf("read header %s: %w", path, err)
	}
	t.header = header
	t.index = make(map[string]int, len(header))
	for i, name := range header {
		t.index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return t, r, nil
}

func (t table) require(path string, columns ...string) (map[string]int, error) {
	out := make(map[string]int, len(columns))
	var missing []string
	for _, c := range columns {
		i, ok := t.index[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		out[c] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s is missing columns %s", domain.ErrSchema, path, strings.Join(missing, ", "))
	}
	return out, nil
}

func (t table) field(rec []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
