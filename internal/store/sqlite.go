package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flipscan/appraise/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS appraisals (
	id              TEXT PRIMARY KEY,
	item_name       TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	decision        TEXT NOT NULL,
	estimated_value REAL NOT NULL DEFAULT 0,
	confidence      REAL NOT NULL DEFAULT 0,
	quality         TEXT NOT NULL,
	result          TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_appraisals_decision ON appraisals(decision);
CREATE INDEX IF NOT EXISTS idx_appraisals_category ON appraisals(category);
CREATE INDEX IF NOT EXISTS idx_appraisals_created_at ON appraisals(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAppraisal(ctx context.Context, res *model.AnalysisResult) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	// Re-saving an ID overwrites the row, so retried recordings stay
	// idempotent.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO appraisals (id, item_name, category, decision, estimated_value, confidence, quality, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			item_name = excluded.item_name,
			category = excluded.category,
			decision = excluded.decision,
			estimated_value = excluded.estimated_value,
			confidence = excluded.confidence,
			quality = excluded.quality,
			result = excluded.result`,
		res.ID, res.ItemName, res.Category, string(res.Consensus.Decision),
		res.Consensus.EstimatedValue, res.Consensus.Confidence,
		string(res.Consensus.AnalysisQuality), string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert appraisal %s", res.ID)
}

func (s *SQLiteStore) GetAppraisal(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_name, category, decision, estimated_value, confidence, quality, result, created_at
		 FROM appraisals WHERE id = ?`,
		id,
	)
	return scanRecord(row)
}

func (s *SQLiteStore) ListAppraisals(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, item_name, category, decision, estimated_value, confidence, quality, result, created_at
	 FROM appraisals WHERE 1=1`
	var args []any

	if filter.Decision != "" {
		query += ` AND decision = ?`
		args = append(args, string(filter.Decision))
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list appraisals")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list appraisals iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var r Record
	var resultJSON string

	err := row.Scan(&r.ID, &r.ItemName, &r.Category, &r.Decision,
		&r.EstimatedValue, &r.Confidence, &r.Quality, &resultJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("appraisal not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan appraisal")
	}

	if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &r, nil
}
