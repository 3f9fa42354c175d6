package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not map to a bindvar style.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// PoolLimits caps the connection pool of a journal database.
type PoolLimits struct {
	MaxOpen int
	MaxIdle int
}

// InitSQLite opens (creating if needed) a local SQLite journal.
func InitSQLite(dbPath string) (*sqlx.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

// InitPostgres connects to a PostgreSQL journal.
func InitPostgres(dsn string, limits PoolLimits) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if limits.MaxOpen > 0 {
		db.SetMaxOpenConns(limits.MaxOpen)
	}
	if limits.MaxIdle > 0 {
		db.SetMaxIdleConns(limits.MaxIdle)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

// The schema sticks to types and syntax both SQLite and PostgreSQL accept.
func createSchemas(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			outcome TEXT NOT NULL,
			days INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL,
			updated_ns BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			timestamp_ns BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			day INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS day_reports (
			run_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			occupancy INTEGER NOT NULL,
			queue_length INTEGER NOT NULL,
			report TEXT NOT NULL,
			PRIMARY KEY (run_id, day)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_seq ON events(run_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor_id ON events(actor_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_target_id ON events(target_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
