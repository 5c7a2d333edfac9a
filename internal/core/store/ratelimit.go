package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bandradar/bandradar/internal/core"
)

// Rate-limit state is keyed by endpoint and written by the source
// adapters between calls. Times are stored as epoch seconds; the two
// backoff columns are nullable because most endpoints have never been
// throttled.

// GetRateLimit loads the throttle state for one endpoint. A missing
// row means the endpoint has no recorded state and returns nil, nil.
func (s *Store) GetRateLimit(ctx context.Context, endpoint string) (*core.RateLimitState, error) {
	ctx, endpoint, err := s.rateLimitArgs(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var (
		state       core.RateLimitState
		windowStart int64
		backoff     sql.NullInt64
		throttled   sql.NullInt64
	)
	err = s.DB.QueryRowContext(ctx, `
		SELECT request_count, window_start, backoff_until, last_429_at
		FROM rate_limits
		WHERE endpoint = ?
	`, endpoint).Scan(&state.RequestCount, &windowStart, &backoff, &throttled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}

	state.WindowStart = time.Unix(windowStart, 0).UTC()
	state.BackoffUntil = optionalTime(backoff)
	state.Last429At = optionalTime(throttled)
	return &state, nil
}

// UpdateRateLimit writes the endpoint's throttle state, replacing any
// previous row for the same endpoint.
func (s *Store) UpdateRateLimit(ctx context.Context, endpoint string, state *core.RateLimitState) error {
	ctx, endpoint, err := s.rateLimitArgs(ctx, endpoint)
	if err != nil {
		return err
	}
	if state == nil {
		return errors.New("rate limit state is required")
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (endpoint, request_count, window_start, backoff_until, last_429_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			request_count = excluded.request_count,
			window_start = excluded.window_start,
			backoff_until = excluded.backoff_until,
			last_429_at = excluded.last_429_at
	`, endpoint, state.RequestCount, state.WindowStart.UTC().Unix(),
		optionalEpoch(state.BackoffUntil), optionalEpoch(state.Last429At))
	if err != nil {
		return fmt.Errorf("store rate limit: %w", err)
	}
	return nil
}

func (s *Store) rateLimitArgs(ctx context.Context, endpoint string) (context.Context, string, error) {
	if s == nil || s.DB == nil {
		return nil, "", errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, "", errors.New("endpoint is required")
	}
	return ctx, endpoint, nil
}

func optionalEpoch(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func optionalTime(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}
