package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"goxtab/domain/core"
	"goxtab/internal/errors"
	"goxtab/models"
	"goxtab/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Connect opens a database handle and ensures the schema exists
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to run-history database")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to ensure runs schema")
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	status      TEXT NOT NULL,
	questions   INT NOT NULL,
	skipped     JSONB NOT NULL DEFAULT '[]',
	warnings    JSONB NOT NULL DEFAULT '[]',
	results     JSONB NOT NULL DEFAULT '[]',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);`

// SaveRun stores one run record, results as JSONB
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, record *models.RunRecord) error {
	skippedJSON, _ := json.Marshal(record.Skipped)
	warningsJSON, _ := json.Marshal(record.Warnings)
	resultsJSON, _ := json.Marshal(record.Results)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, fingerprint, status, questions, skipped, warnings, results, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			status = EXCLUDED.status,
			questions = EXCLUDED.questions,
			skipped = EXCLUDED.skipped,
			warnings = EXCLUDED.warnings,
			results = EXCLUDED.results,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`,
		record.ID, record.Fingerprint, record.Status, record.Questions,
		skippedJSON, warningsJSON, resultsJSON, record.StartedAt, record.FinishedAt)
	if err != nil {
		return errors.Wrapf(err, "failed to save run %s", record.ID)
	}
	return nil
}

// GetRun retrieves one run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*models.RunRecord, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, fingerprint, status, questions, skipped, warnings, results, started_at, finished_at, created_at
		FROM runs WHERE id = $1`, id.String())

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	return record, nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, fingerprint, status, questions, skipped, warnings, results, started_at, finished_at, created_at
		FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var records []models.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run row")
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// rowScanner covers both Row and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var record models.RunRecord
	var skippedJSON, warningsJSON, resultsJSON []byte

	err := row.Scan(&record.ID, &record.Fingerprint, &record.Status, &record.Questions,
		&skippedJSON, &warningsJSON, &resultsJSON,
		&record.StartedAt, &record.FinishedAt, &record.CreatedAt)
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal(skippedJSON, &record.Skipped)
	_ = json.Unmarshal(warningsJSON, &record.Warnings)
	_ = json.Unmarshal(resultsJSON, &record.Results)
	return &record, nil
}
