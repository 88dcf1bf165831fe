// Package storage keeps a local sqlite journal of finished exports so
// operators can recover result URLs after the fact.
package storage

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/ailover/larkrelay/internal/config"
)

// EnvJournalPath points at the sqlite file backing the export journal. Unset
// disables journaling.
const EnvJournalPath = "LARKRELAY_DB_PATH"

// Export kinds recorded in the journal.
const (
	KindTestCases  = "test_cases"
	KindTestReport = "test_report"
)

// Journal statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ExportRecord is one journal row.
type ExportRecord struct {
	ExportID  string
	Kind      string
	TargetURL string
	Status    string
	Message   string
	CreatedAt time.Time
}

// ExportJournal appends export outcomes to a local sqlite table.
type ExportJournal struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// OpenJournalFromEnv opens the journal configured via LARKRELAY_DB_PATH. It
// returns (nil, nil) when the variable is unset.
func OpenJournalFromEnv() (*ExportJournal, error) {
	path := config.String(EnvJournalPath, "")
	if path == "" {
		return nil, nil
	}
	return OpenJournal(path)
}

// OpenJournal opens (and if needed creates) the journal at path.
func OpenJournal(path string) (*ExportJournal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("export journal path cannot be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database for export journal failed")
	}
	if err := configureJournalSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := ensureJournalSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	stmt, err := db.Prepare(
		`INSERT INTO export_journal (export_id, kind, target_url, status, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "prepare export journal insert failed")
	}
	return &ExportJournal{db: db, stmt: stmt}, nil
}

func configureJournalSQLite(db *sql.DB) error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA busy_timeout=5000`,
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "apply %s failed", pragma)
		}
	}
	return nil
}

func ensureJournalSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS export_journal (
		export_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		target_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`)
	return errors.Wrap(err, "ensure export journal schema failed")
}

// Record appends one export outcome.
func (j *ExportJournal) Record(rec ExportRecord) error {
	if j == nil || j.stmt == nil {
		return errors.New("export journal is nil")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := j.stmt.Exec(
		rec.ExportID,
		rec.Kind,
		rec.TargetURL,
		rec.Status,
		rec.Message,
		createdAt.UTC().Format(time.RFC3339),
	)
	return errors.Wrap(err, "insert export journal row failed")
}

// Recent returns up to limit journal rows, newest first.
func (j *ExportJournal) Recent(limit int) ([]ExportRecord, error) {
	if j == nil || j.db == nil {
		return nil, errors.New("export journal is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(
		`SELECT export_id, kind, target_url, status, message, created_at
		 FROM export_journal ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query export journal failed")
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var createdAt string
		if err := rows.Scan(&rec.ExportID, &rec.Kind, &rec.TargetURL, &rec.Status, &rec.Message, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scan export journal row failed")
		}
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = parsed
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(rows.Err(), "iterate export journal rows failed")
}

// Close releases the underlying database handle.
func (j *ExportJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	if j.stmt != nil {
		_ = j.stmt.Close()
	}
	return j.db.Close()
}
