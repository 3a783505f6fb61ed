// Package store mirrors the operations index into SQLite and keeps a log of
// batch runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	position        INTEGER PRIMARY KEY,
	statement_id    TEXT NOT NULL,
	sequence        TEXT NOT NULL,
	settlement_date TEXT,
	amount          REAL,
	payee           TEXT NOT NULL,
	entry_json      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_operations_date ON operations(settlement_date);
CREATE INDEX IF NOT EXISTS idx_operations_statement ON operations(statement_id);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT,
	documents    INTEGER NOT NULL DEFAULT 0,
	parsed       INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	conflicts    INTEGER NOT NULL DEFAULT 0,
	operations   INTEGER NOT NULL DEFAULT 0
);
`

// Storage provides SQLite database access.
// It implements the Repository interface.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens (creating if needed) the database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Storage{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) ReplaceOperations(entries []models.IndexEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM operations`); err != nil {
		return fmt.Errorf("failed to clear operations: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO operations (position, statement_id, sequence, settlement_date, amount, payee, entry_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode entry %s: %w", e.Key(), err)
		}

		var date, amount any
		if d := e.SettlementDate(); d != nil {
			date = d.String()
		}
		if e.Amount != nil {
			amount = e.Amount.InexactFloat64()
		}

		if _, err := stmt.Exec(i, e.StatementID, e.Sequence, date, amount, e.Payee(), string(data)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.Key(), err)
		}
	}

	return tx.Commit()
}

func (s *Storage) ListOperations(filter index.Filter) ([]models.IndexEntry, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Start.IsZero() {
		where = append(where, "settlement_date >= ?")
		args = append(args, filter.Start.String())
	}
	if !filter.End.IsZero() {
		where = append(where, "settlement_date <= ?")
		args = append(args, filter.End.String())
	}
	if filter.Min != nil {
		where = append(where, "amount >= ?")
		args = append(args, filter.Min.InexactFloat64())
	}
	if filter.Max != nil {
		where = append(where, "amount <= ?")
		args = append(args, filter.Max.InexactFloat64())
	}

	query := `SELECT entry_json FROM operations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY position`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	out := make([]models.IndexEntry, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e models.IndexEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		// SQLite LOWER only folds ASCII, so the payee match happens here.
		if filter.Counterparty != "" && !filter.Match(&e) {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) StartRun(kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
	INSERT INTO runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)
	`, id, kind, StatusRunning, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

func (s *Storage) CompleteRun(id string, stats RunStats) error {
	status := StatusCompleted
	if stats.Failed > 0 || stats.Conflicts > 0 {
		status = StatusFailed
	}
	res, err := s.db.Exec(`
	UPDATE runs
	SET status = ?, completed_at = ?, documents = ?, parsed = ?, failed = ?, conflicts = ?, operations = ?
	WHERE id = ?
	`, status, s.now().UTC().Format(time.RFC3339Nano),
		stats.Documents, stats.Parsed, stats.Failed, stats.Conflicts, stats.Operations, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

func (s *Storage) GetRun(id string) (*Run, error) {
	var (
		run         Run
		startedAt   string
		completedAt sql.NullString
	)
	err := s.db.QueryRow(`
	SELECT id, kind, status, started_at, completed_at, documents, parsed, failed, conflicts, operations
	FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID,
		&run.Kind,
		&run.Status,
		&startedAt,
		&completedAt,
		&run.Stats.Documents,
		&run.Stats.Parsed,
		&run.Stats.Failed,
		&run.Stats.Conflicts,
		&run.Stats.Operations,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}
