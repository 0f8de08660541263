package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/flipscan/appraise/internal/db"
	"github.com/flipscan/appraise/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the hot-path queries prepared on each new
// connection; SaveAppraisal and GetAppraisal execute them by name.
// Re-saving an appraisal ID overwrites the row, so retried pipeline
// recordings are idempotent.
var preparedStatements = map[string]string{
	"upsert_appraisal": `INSERT INTO appraisals (id, item_name, category, decision, estimated_value, confidence, quality, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			item_name = EXCLUDED.item_name,
			category = EXCLUDED.category,
			decision = EXCLUDED.decision,
			estimated_value = EXCLUDED.estimated_value,
			confidence = EXCLUDED.confidence,
			quality = EXCLUDED.quality,
			result = EXCLUDED.result`,
	"get_appraisal": `SELECT id, item_name, category, decision, estimated_value, confidence, quality, result, created_at FROM appraisals WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool, for tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS appraisals (
	id              TEXT PRIMARY KEY,
	item_name       TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	decision        TEXT NOT NULL,
	estimated_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
	quality         TEXT NOT NULL,
	result          JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appraisal_listings (
	appraisal_id TEXT NOT NULL REFERENCES appraisals(id),
	source       TEXT NOT NULL,
	title        TEXT NOT NULL,
	price        DOUBLE PRECISION NOT NULL,
	condition    TEXT NOT NULL DEFAULT '',
	url          TEXT NOT NULL DEFAULT '',
	UNIQUE (appraisal_id, source, title, url)
);

CREATE INDEX IF NOT EXISTS idx_appraisals_decision ON appraisals(decision);
CREATE INDEX IF NOT EXISTS idx_appraisals_category ON appraisals(category);
CREATE INDEX IF NOT EXISTS idx_appraisals_created_at ON appraisals(created_at);
CREATE INDEX IF NOT EXISTS idx_appraisal_listings_appraisal_id ON appraisal_listings(appraisal_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveAppraisal(ctx context.Context, res *model.AnalysisResult) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx, "upsert_appraisal",
		res.ID, res.ItemName, res.Category, string(res.Consensus.Decision),
		res.Consensus.EstimatedValue, res.Consensus.Confidence,
		string(res.Consensus.AnalysisQuality), string(resultJSON), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert appraisal %s", res.ID)
	}

	// Sample listings feed downstream pricing analytics. The bulk upsert
	// keeps listing-heavy categories cheap via COPY and makes re-saves
	// refresh prices instead of piling up duplicate rows.
	rows := listingRows(res)
	if len(rows) == 0 {
		return nil
	}
	_, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "appraisal_listings",
		Columns:      []string{"appraisal_id", "source", "title", "price", "condition", "url"},
		ConflictKeys: []string{"appraisal_id", "source", "title", "url"},
	}, rows)
	return eris.Wrapf(err, "postgres: upsert listings for %s", res.ID)
}

func listingRows(res *model.AnalysisResult) [][]any {
	var rows [][]any
	for i := range res.EvidenceSources {
		src := &res.EvidenceSources[i]
		if !src.Available {
			continue
		}
		for _, l := range src.SampleListings {
			rows = append(rows, []any{res.ID, src.Source, l.Title, l.Price, l.Condition, l.URL})
		}
	}
	return rows
}

func (s *PostgresStore) GetAppraisal(ctx context.Context, id string) (*Record, error) {
	return scanPgRecord(s.pool.QueryRow(ctx, "get_appraisal", id))
}

func (s *PostgresStore) ListAppraisals(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, item_name, category, decision, estimated_value, confidence, quality, result, created_at
	 FROM appraisals WHERE 1=1`
	var args []any

	if filter.Decision != "" {
		args = append(args, string(filter.Decision))
		query += placeholder(` AND decision = `, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += placeholder(` AND category = `, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += placeholder(` LIMIT `, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += placeholder(` OFFSET `, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list appraisals")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanPgRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list appraisals iterate")
}

func placeholder(clause string, n int) string {
	return clause + "$" + strconv.Itoa(n)
}

func scanPgRecord(row pgx.Row) (*Record, error) {
	var r Record
	var resultJSON []byte

	err := row.Scan(&r.ID, &r.ItemName, &r.Category, &r.Decision,
		&r.EstimatedValue, &r.Confidence, &r.Quality, &resultJSON, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("appraisal not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan appraisal")
	}

	if err := json.Unmarshal(resultJSON, &r.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &r, nil
}
