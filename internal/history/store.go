package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ppiankov/realitycheck/internal/model"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var schema = []string{`
CREATE TABLE IF NOT EXISTS checks (
	id              TEXT PRIMARY KEY,
	topic           TEXT NOT NULL,
	country         TEXT NOT NULL,
	topic_count     INTEGER NOT NULL,
	country_count   INTEGER NOT NULL,
	flagship_rate   REAL NOT NULL,
	flagship_risk   TEXT NOT NULL,
	small_rate      REAL NOT NULL,
	small_risk      TEXT NOT NULL,
	checked_at      TEXT NOT NULL,
	report          TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_checks_checked_at ON checks (checked_at DESC)`,
}

// ErrNotFound is returned when a report ID is not in the history
var ErrNotFound = errors.New("report not found")

// Entry is one recorded check
type Entry struct {
	ID           string          `db:"id" json:"id"`
	Topic        string          `db:"topic" json:"topic"`
	Country      string          `db:"country" json:"country"`
	TopicCount   int64           `db:"topic_count" json:"topic_count"`
	CountryCount int64           `db:"country_count" json:"country_count"`
	FlagshipRate float64         `db:"flagship_rate" json:"flagship_rate"`
	FlagshipRisk model.RiskLevel `db:"flagship_risk" json:"flagship_risk"`
	SmallRate    float64         `db:"small_rate" json:"small_rate"`
	SmallRisk    model.RiskLevel `db:"small_risk" json:"small_risk"`
	CheckedAt    time.Time       `db:"-" json:"checked_at"`
}

type entryRow struct {
	Entry
	CheckedAtText string `db:"checked_at"`
}

// Store keeps past checks in a local SQLite file
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished report. Recording the same ID twice replaces it.
func (s *Store) Record(ctx context.Context, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checks (id, topic, country, topic_count, country_count,
			flagship_rate, flagship_risk, small_rate, small_risk, checked_at, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Topic, report.Country, report.TopicCount, report.CountryCount,
		report.Flagship.Rate, string(report.Flagship.RiskLevel),
		report.Small.Rate, string(report.Small.RiskLevel),
		report.CheckedAt.UTC().Format(timeLayout), string(data))
	if err != nil {
		return fmt.Errorf("insert check: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, topic, country, topic_count, country_count,
			flagship_rate, flagship_risk, small_rate, small_risk, checked_at
		FROM checks
		ORDER BY checked_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse(timeLayout, r.CheckedAtText)
		if err != nil {
			return nil, fmt.Errorf("parse checked_at for %s: %w", r.ID, err)
		}
		r.Entry.CheckedAt = t
		entries = append(entries, r.Entry)
	}
	return entries, nil
}

// Report loads the full stored report by ID
func (s *Store) Report(ctx context.Context, id string) (*model.Report, error) {
	var data string
	err := s.db.GetContext(ctx, &data, `SELECT report FROM checks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// applyPragmas configures SQLite for a single local user
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
