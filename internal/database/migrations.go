package database

import (
	"database/sql"
	"fmt"
)

// Schema creates the run and case result tables.
const Schema = `
CREATE TABLE IF NOT EXISTS test_runs (
	id UUID PRIMARY KEY,
	base_url TEXT NOT NULL,
	status VARCHAR(20) NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS case_results (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES test_runs(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	severity VARCHAR(20) NOT NULL,
	status VARCHAR(20) NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

-- Results are listed per run, failures first.
CREATE INDEX IF NOT EXISTS idx_case_results_run ON case_results(run_id);
CREATE INDEX IF NOT EXISTS idx_case_results_status ON case_results(status);
CREATE INDEX IF NOT EXISTS idx_test_runs_started ON test_runs(started_at);
`

// RunMigrations creates the results tables on db.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}
	if _, err := ExecScript(db, Schema); err != nil {
		return fmt.Errorf("failed to create results tables: %w", err)
	}
	return nil
}
