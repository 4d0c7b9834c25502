package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/themizzi/shopcheck/internal/database"
	"github.com/themizzi/shopcheck/internal/models"
)

// Lookup errors
var (
	ErrRunNotFound    = errors.New("run not found")
	ErrResultNotFound = errors.New("case result not found")
)

// ResultRepository handles database operations for runs and case results
type ResultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a repository over the connection opened by
// database.Connect
func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		db: database.DB,
	}
}

// NewResultRepositoryWithDB creates a new result repository with a specific database connection
func NewResultRepositoryWithDB(db *sql.DB) *ResultRepository {
	return &ResultRepository{
		db: db,
	}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// CreateRun inserts a new run
func (r *ResultRepository) CreateRun(run *models.TestRun) error {
	query := `
		INSERT INTO test_runs (id, base_url, status, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, run.ID, run.BaseURL, run.Status, run.StartedAt, nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final status of a run
func (r *ResultRepository) FinishRun(run *models.TestRun) error {
	query := `
		UPDATE test_runs
		SET status = $1, finished_at = $2
		WHERE id = $3
	`

	n, err := database.Exec(r.db, query, run.Status, nullTime(run.FinishedAt), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `id, base_url, status, started_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (*models.TestRun, error) {
	run := &models.TestRun{}
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.BaseURL, &run.Status, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.FinishedAt = finished.Time
	return run, nil
}

// GetRun retrieves a run by ID
func (r *ResultRepository) GetRun(id string) (*models.TestRun, error) {
	query := `SELECT ` + runColumns + ` FROM test_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (r *ResultRepository) ListRuns(limit int) ([]*models.TestRun, error) {
	query := `SELECT ` + runColumns + ` FROM test_runs ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.TestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// SaveResult inserts a case result, or updates it when it already exists
func (r *ResultRepository) SaveResult(res *models.CaseResult) error {
	query := `
		INSERT INTO case_results (id, run_id, name, severity, status, message, duration_ms, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, message = EXCLUDED.message,
		    duration_ms = EXCLUDED.duration_ms, finished_at = EXCLUDED.finished_at
	`

	_, err := r.db.Exec(query,
		res.ID,
		res.RunID,
		res.Name,
		res.Severity,
		res.Status,
		res.Message,
		res.Duration.Milliseconds(),
		res.StartedAt,
		nullTime(res.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// ListResults returns the results of a run, failures first then by name
func (r *ResultRepository) ListResults(runID string) ([]*models.CaseResult, error) {
	query := `
		SELECT id, run_id, name, severity, status, message, duration_ms, started_at, finished_at
		FROM case_results
		WHERE run_id = $1
		ORDER BY (status = 'failed') DESC, name
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*models.CaseResult
	for rows.Next() {
		res := &models.CaseResult{}
		var ms int64
		var finished sql.NullTime
		if err := rows.Scan(&res.ID, &res.RunID, &res.Name, &res.Severity, &res.Status,
			&res.Message, &ms, &res.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Duration = time.Duration(ms) * time.Millisecond
		res.FinishedAt = finished.Time
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}
