package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bandradar/bandradar/internal/core"
)

// HistoryRow is one persisted verification.
type HistoryRow struct {
	ID              int64
	Name            string
	Type            core.NameType
	Status          core.Status
	Confidence      float64
	ConfidenceLevel core.ConfidenceLevel
	Quality         core.AggregationQuality
	Details         string
	FromCache       bool
	CheckedAt       time.Time
}

// RecordVerification appends one verification outcome to the history
// table. Implements the engine's history hook.
func (s *Store) RecordVerification(ctx context.Context, result core.VerificationResult, _ core.Decision) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	fromCache := 0
	if result.FromCache {
		fromCache = 1
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO verification_history
			(name, name_type, status, confidence, confidence_level, quality, details, from_cache, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.Name, string(result.Type), string(result.Status), result.Confidence,
		string(result.ConfidenceLevel), string(result.Quality), result.Details,
		fromCache, result.CheckedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store verification: %w", err)
	}

	return nil
}

// RecentVerifications returns the newest history rows, newest first.
func (s *Store) RecentVerifications(ctx context.Context, limit int) ([]HistoryRow, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, name_type, status, confidence, confidence_level, quality, details, from_cache, checked_at
		FROM verification_history
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch verification history: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var history []HistoryRow
	for rows.Next() {
		var (
			row       HistoryRow
			nameType  string
			status    string
			level     string
			quality   string
			fromCache int
			checkedAt int64
		)
		if err := rows.Scan(&row.ID, &row.Name, &nameType, &status, &row.Confidence,
			&level, &quality, &row.Details, &fromCache, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan verification history: %w", err)
		}
		row.Type = core.NameType(nameType)
		row.Status = core.Status(status)
		row.ConfidenceLevel = core.ConfidenceLevel(level)
		row.Quality = core.AggregationQuality(quality)
		row.FromCache = fromCache == 1
		row.CheckedAt = time.Unix(checkedAt, 0).UTC()
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read verification history: %w", err)
	}

	return history, nil
}
