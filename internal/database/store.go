package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Store wraps a SQLite connection holding the optional telemetry history.
type Store struct {
	db *sql.DB
}

// New creates a Store and applies the connection pragmas. Call Init on the
// returned store to install the schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// WAL allows the HTTP history reads to proceed while the recorder writes.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{db: db}, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS telemetry_samples (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        miner_id TEXT NOT NULL,
        recorded_at TIMESTAMP NOT NULL,
        hashrate_ghs REAL NOT NULL,
        expected_ghs REAL NOT NULL,
        power_w REAL NOT NULL,
        chip_temp_c REAL NOT NULL,
        vr_temp_c REAL NOT NULL,
        fan_duty_pct INTEGER NOT NULL,
        fan_rpm INTEGER NOT NULL,
        error_pct REAL NOT NULL,
        shares_accepted INTEGER NOT NULL,
        shares_rejected INTEGER NOT NULL,
        asic_errors INTEGER NOT NULL,
        pool_state TEXT NOT NULL,
        last_submit_ms INTEGER
    )`,
	`CREATE INDEX IF NOT EXISTS idx_telemetry_samples_miner_time
        ON telemetry_samples (miner_id, recorded_at DESC)`,
}

// Init installs the schema. Safe to call multiple times; every statement is
// guarded with IF NOT EXISTS.
func (s *Store) Init(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// DB exposes the underlying handle for read-only situations.
func (s *Store) DB() *sql.DB {
	return s.db
}
