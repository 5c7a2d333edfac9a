package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rate_limits (
		endpoint TEXT PRIMARY KEY,
		request_count INTEGER NOT NULL DEFAULT 0,
		window_start INTEGER NOT NULL,
		backoff_until INTEGER,
		last_429_at INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS verification_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_type TEXT NOT NULL,
		status TEXT NOT NULL,
		confidence REAL NOT NULL,
		confidence_level TEXT NOT NULL,
		quality TEXT NOT NULL,
		details TEXT,
		from_cache INTEGER NOT NULL DEFAULT 0,
		checked_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_history_name ON verification_history(name, name_type);`,
	`CREATE INDEX IF NOT EXISTS idx_history_checked ON verification_history(checked_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
