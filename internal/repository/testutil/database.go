package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/database"
)

// localDefaults let the integration tests run against a stock local Postgres.
var localDefaults = map[string]string{
	"POSTGRES_USER":     "postgres",
	"POSTGRES_PASSWORD": "postgres",
	"POSTGRES_DB":       "postgres",
	"POSTGRES_HOSTNAME": "localhost",
}

// TestDatabase is a results schema private to one test.
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	admin      *sql.DB
}

func getenv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return localDefaults[key]
}

// SetupTestDatabase creates a fresh schema, points a connection pool at it
// and migrates the results tables into it.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	cfg, err := config.LoadPostgresConfig(getenv)
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	admin, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	td := &TestDatabase{
		SchemaName: "shopcheck_test_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		admin:      admin,
	}
	if _, err := admin.Exec(fmt.Sprintf("CREATE SCHEMA %s", td.SchemaName)); err != nil {
		admin.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	td.DB, err = sql.Open("postgres", fmt.Sprintf("%s search_path=%s", cfg.ConnectionString(), td.SchemaName))
	if err == nil {
		td.DB.SetMaxOpenConns(5)
		err = td.DB.Ping()
	}
	if err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to connect to test schema: %v", err)
	}

	if err := database.RunMigrations(td.DB); err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return td
}

// Teardown drops the schema and closes both pools.
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.admin == nil {
		return
	}
	if _, err := td.admin.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName)); err != nil {
		t.Logf("Warning: Failed to drop test schema %s: %v", td.SchemaName, err)
	}
	td.admin.Close()
}
