//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenMemoryStore(t *testing.T) {
	s := openMemoryStore(t)
	require.Equal(t, "libsql", s.Driver())
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	missing, err := s.GetRateLimit(ctx, "api.spotify.com")
	require.NoError(t, err)
	require.Nil(t, missing)

	until := time.Now().UTC().Add(30 * time.Second).Truncate(time.Second)
	state := &core.RateLimitState{
		RequestCount: 12,
		WindowStart:  time.Now().UTC().Truncate(time.Second),
		BackoffUntil: &until,
	}
	require.NoError(t, s.UpdateRateLimit(ctx, "api.spotify.com", state))

	loaded, err := s.GetRateLimit(ctx, "api.spotify.com")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 12, loaded.RequestCount)
	require.NotNil(t, loaded.BackoffUntil)
	require.Equal(t, until.Unix(), loaded.BackoffUntil.Unix())
}

func TestVerificationHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemoryStore(t)

	result := core.VerificationResult{
		Name:            "Velvet Fox",
		Type:            core.NameTypeBand,
		Status:          core.StatusAvailable,
		Details:         "no conflicting names across 3 source(s)",
		Confidence:      0.9,
		ConfidenceLevel: core.ConfidenceVeryHigh,
		Quality:         core.AggregationHigh,
		CheckedAt:       time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.RecordVerification(ctx, result, core.Decision{}))

	rows, err := s.RecentVerifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Velvet Fox", rows[0].Name)
	require.Equal(t, core.StatusAvailable, rows[0].Status)
	require.Equal(t, core.ConfidenceVeryHigh, rows[0].ConfidenceLevel)
	require.False(t, rows[0].FromCache)
}
