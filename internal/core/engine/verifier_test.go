package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/breaker"
	"github.com/bandradar/bandradar/internal/core/cache"
	"github.com/bandradar/bandradar/internal/core/source"
	"github.com/bandradar/bandradar/internal/core/verdict"
)

// fakeAdapter is a scriptable source for coordinator and verifier tests.
type fakeAdapter struct {
	id          string
	reliability float64
	delay       time.Duration
	respond     func(name string) *core.PlatformEvidence
	calls       atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeAdapter) ID() string { return f.id }

func (f *fakeAdapter) Reliability() float64 { return f.reliability }

func (f *fakeAdapter) Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error) {
	f.calls.Add(1)
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		observed := f.maxInFlight.Load()
		if current <= observed || f.maxInFlight.CompareAndSwap(observed, current) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &core.PlatformEvidence{
				SourceID:    f.id,
				Reliability: f.reliability,
				Err:         core.TimeoutError(f.id),
			}, nil
		}
	}

	if f.respond != nil {
		return f.respond(name), nil
	}
	return emptyEvidence(f.id, f.reliability), nil
}

func emptyEvidence(id string, reliability float64) *core.PlatformEvidence {
	return &core.PlatformEvidence{
		SourceID:      id,
		Available:     true,
		Reliability:   reliability,
		SearchQuality: 1,
	}
}

func timeoutEvidence(id string, reliability float64) *core.PlatformEvidence {
	return &core.PlatformEvidence{
		SourceID:    id,
		Reliability: reliability,
		Err:         core.TimeoutError(id),
	}
}

func newTestVerifier(t *testing.T, adapters ...source.Adapter) *Verifier {
	t.Helper()

	resultCache, err := cache.New(100)
	require.NoError(t, err)
	t.Cleanup(resultCache.Close)

	famous, err := source.NewFamous()
	require.NoError(t, err)

	return &Verifier{
		Coordinator: &Coordinator{Sources: adapters},
		Famous:      famous,
		Cache:       resultCache,
		Dedup:       cache.NewDeduper(5 * time.Second),
		Policy:      verdict.Policy{FailOpen: true, TTL: verdict.DefaultTTLPolicy()},
	}
}

func bandRequest(name string) core.NameRequest {
	return core.NameRequest{
		Name:    name,
		Type:    core.NameTypeBand,
		Options: core.DefaultRequestOptions(),
	}
}

func TestVerifyNamesRejectsInvalidInput(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.VerifyNames(context.Background(), []core.NameRequest{
		{Name: "", Type: core.NameTypeBand},
	})
	require.Error(t, err)

	verr, ok := err.(*core.VerifyError)
	require.True(t, ok)
	assert.Equal(t, core.ErrInvalidInput, verr.Code)
}

func TestVerifyEasterEgg(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	v := newTestVerifier(t, spotify)

	result, err := v.VerifyName(context.Background(), bandRequest("NameJam"))
	require.NoError(t, err)

	assert.Equal(t, core.StatusAvailable, result.Status)
	assert.Equal(t, "Nice try! That one's ours.", result.Details)
	assert.Zero(t, spotify.calls.Load(), "easter eggs never reach the network")

	// Egg results are never cached.
	_, cached := v.Cache.Get(core.CacheKey("NameJam", core.NameTypeBand))
	assert.False(t, cached)
}

func TestVerifyFamousShortcut(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	v := newTestVerifier(t, spotify)

	result, err := v.VerifyName(context.Background(), bandRequest("The Beatles"))
	require.NoError(t, err)

	assert.Equal(t, core.StatusTaken, result.Status)
	assert.Equal(t, core.ConfidenceVeryHigh, result.ConfidenceLevel)
	assert.NotEmpty(t, result.Suggestions)
	assert.Zero(t, spotify.calls.Load(), "famous hits skip live catalogs")
}

func TestVerifySkipFamousReachesLiveSources(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	v := newTestVerifier(t, spotify)

	first, err := v.VerifyName(context.Background(), bandRequest("The Beatles"))
	require.NoError(t, err)
	require.Equal(t, core.StatusTaken, first.Status)
	require.Zero(t, spotify.calls.Load())

	// A caller opting out of the shortcut must not inherit the first
	// caller's famous verdict through the dedup layer.
	req := bandRequest("The Beatles")
	req.Options.SkipFamousArtists = true
	req.Options.CacheEnabled = false

	second, err := v.VerifyName(context.Background(), req)
	require.NoError(t, err)

	assert.Positive(t, spotify.calls.Load(), "skip-famous caller should reach live sources")
	assert.Equal(t, core.StatusAvailable, second.Status)
}

func TestVerifySimilarNamesOrderedByCloseness(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0, respond: func(string) *core.PlatformEvidence {
		matches := []core.PlatformMatch{
			{Name: "Crimson Harvest Moon", Similarity: 0.3, MatchType: core.MatchFuzzy, SourceID: "spotify"},
			{Name: "Velvet Fox Trio", Similarity: 0.7, MatchType: core.MatchPartial, SourceID: "spotify"},
		}
		return &core.PlatformEvidence{
			SourceID:       "spotify",
			Available:      true,
			Reliability:    1.0,
			Matches:        matches,
			SimilarMatches: matches,
			TotalResults:   len(matches),
			SearchQuality:  1,
		}
	}}
	v := newTestVerifier(t, spotify)

	result, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)

	require.NotEmpty(t, result.SimilarNames)
	assert.Equal(t, "Velvet Fox Trio", result.SimilarNames[0], "closest name listed first")
}

func TestVerifyAllSourcesEmpty(t *testing.T) {
	v := newTestVerifier(t,
		&fakeAdapter{id: "spotify", reliability: 1.0},
		&fakeAdapter{id: "itunes", reliability: 0.9},
		&fakeAdapter{id: "musicbrainz", reliability: 0.85},
	)

	result, err := v.VerifyName(context.Background(), bandRequest("Zqvthorlmyx Fennelbarrow"))
	require.NoError(t, err)

	assert.Equal(t, core.StatusAvailable, result.Status)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.Equal(t, core.AggregationHigh, result.Quality)
}

func TestVerifyOneSourceDownOthersEmpty(t *testing.T) {
	v := newTestVerifier(t,
		&fakeAdapter{id: "spotify", reliability: 1.0, respond: func(string) *core.PlatformEvidence {
			return timeoutEvidence("spotify", 1.0)
		}},
		&fakeAdapter{id: "itunes", reliability: 0.9},
		&fakeAdapter{id: "musicbrainz", reliability: 0.85},
	)

	result, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)

	// One failure must not force uncertainty when others answered.
	assert.Equal(t, core.StatusAvailable, result.Status)
	assert.Equal(t, core.AggregationHigh, result.Quality)
}

func TestVerifyTotalFailureFailOpen(t *testing.T) {
	down := func(id string, reliability float64) *fakeAdapter {
		return &fakeAdapter{id: id, reliability: reliability, respond: func(string) *core.PlatformEvidence {
			return timeoutEvidence(id, reliability)
		}}
	}
	v := newTestVerifier(t, down("spotify", 1.0), down("itunes", 0.9))

	result, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)

	assert.Equal(t, core.StatusAvailable, result.Status)
	assert.LessOrEqual(t, result.Confidence, 0.5)
	assert.Equal(t, core.AggregationLow, result.Quality)
}

func TestVerifyTakenName(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0, respond: func(name string) *core.PlatformEvidence {
		return &core.PlatformEvidence{
			SourceID:    "spotify",
			Reliability: 1.0,
			Matches: []core.PlatformMatch{{
				Name: name, Popularity: 80, Similarity: 1,
				IsExactMatch: true, MatchType: core.MatchExact, SourceID: "spotify",
			}},
			ExactMatches: []core.PlatformMatch{{
				Name: name, Popularity: 80, Similarity: 1,
				IsExactMatch: true, MatchType: core.MatchExact, SourceID: "spotify",
			}},
			TotalResults:  1,
			SearchQuality: 1,
		}
	}}
	v := newTestVerifier(t, spotify, &fakeAdapter{id: "itunes", reliability: 0.9})

	result, err := v.VerifyName(context.Background(), bandRequest("Ghost Signal"))
	require.NoError(t, err)

	// The high-reliability exact match wins even though the peer saw
	// nothing; the disagreement shows up in aggregation quality.
	assert.Equal(t, core.StatusTaken, result.Status)
	assert.Equal(t, core.AggregationLow, result.Quality)
	assert.NotEmpty(t, result.Suggestions)
	assert.NotEmpty(t, result.Links)
}

func TestVerifyCacheHitIsIdempotent(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	v := newTestVerifier(t, spotify)

	first, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)
	require.False(t, first.FromCache)

	second, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, int32(1), spotify.calls.Load())

	expected := *first
	expected.FromCache = true
	assert.Equal(t, &expected, second)
}

func TestVerifyCacheDisabled(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	v := newTestVerifier(t, spotify)
	v.Dedup = nil

	req := bandRequest("Velvet Fox")
	req.Options.CacheEnabled = false

	for i := 0; i < 2; i++ {
		_, err := v.VerifyName(context.Background(), req)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), spotify.calls.Load())
}

func TestVerifyNamesPreservesOrder(t *testing.T) {
	slow := &fakeAdapter{id: "spotify", reliability: 1.0, delay: 40 * time.Millisecond}
	v := newTestVerifier(t, slow)

	names := []string{"Alpha Wolf", "Bravo Tango", "Charlie Parker Tribute", "Delta Blues Society"}
	requests := make([]core.NameRequest, len(names))
	for i, name := range names {
		requests[i] = bandRequest(name)
		requests[i].Options.CacheEnabled = false
	}

	results, err := v.VerifyNames(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, results, len(names))

	for i, name := range names {
		assert.Equal(t, name, results[i].Name)
	}
}

func TestVerifyConcurrentIdenticalRequestsCollapse(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0, delay: 60 * time.Millisecond}
	v := newTestVerifier(t, spotify)

	req := bandRequest("Velvet Fox")
	req.Options.CacheEnabled = false

	const callers = 6
	var wg sync.WaitGroup
	results := make([]*core.VerificationResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := v.VerifyName(context.Background(), req)
			require.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), spotify.calls.Load())
	for _, result := range results {
		assert.Equal(t, results[0].Status, result.Status)
	}
}

func TestVerifyHistoryRecorded(t *testing.T) {
	recorder := &captureHistory{}
	v := newTestVerifier(t, &fakeAdapter{id: "spotify", reliability: 1.0})
	v.History = recorder

	_, err := v.VerifyName(context.Background(), bandRequest("Velvet Fox"))
	require.NoError(t, err)

	require.Len(t, recorder.results, 1)
	assert.Equal(t, "Velvet Fox", recorder.results[0].Name)
}

type captureHistory struct {
	mu      sync.Mutex
	results []core.VerificationResult
}

func (c *captureHistory) RecordVerification(_ context.Context, result core.VerificationResult, _ core.Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
	return nil
}

func TestCoordinatorConcurrencyCap(t *testing.T) {
	var inFlight, peak atomic.Int32
	observe := func(id string, reliability float64) *fakeAdapter {
		return &fakeAdapter{id: id, reliability: reliability, respond: func(string) *core.PlatformEvidence {
			current := inFlight.Add(1)
			defer inFlight.Add(-1)
			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			return emptyEvidence(id, reliability)
		}}
	}

	c := &Coordinator{
		Sources: []source.Adapter{
			observe("spotify", 1.0),
			observe("itunes", 0.9),
			observe("musicbrainz", 0.85),
			observe("domain", 0.6),
			observe("extra", 0.5),
		},
		MaxConcurrent: 2,
	}
	c.Gather(context.Background(), "Velvet Fox", core.NameTypeBand, nil)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Positive(t, peak.Load())
}

func TestCoordinatorBreakerShortCircuits(t *testing.T) {
	failing := &fakeAdapter{id: "spotify", reliability: 1.0, respond: func(string) *core.PlatformEvidence {
		return timeoutEvidence("spotify", 1.0)
	}}
	c := &Coordinator{
		Sources: []source.Adapter{failing},
		Breaker: breaker.Settings{FailureThreshold: 3, FailureWindow: time.Minute, RecoveryTimeout: time.Minute},
	}

	for i := 0; i < 3; i++ {
		c.Gather(context.Background(), "Velvet Fox", core.NameTypeBand, nil)
	}
	require.Equal(t, int32(3), failing.calls.Load())
	require.Equal(t, breaker.StateOpen, c.BreakerStates()["spotify"])

	evidence := c.Gather(context.Background(), "Velvet Fox", core.NameTypeBand, nil)
	assert.Equal(t, int32(3), failing.calls.Load(), "open breaker skips the source")
	require.Len(t, evidence, 1)
	require.NotNil(t, evidence[0].Err)
	assert.Contains(t, evidence[0].Err.Message, "circuit breaker open")
}

func TestCoordinatorSourceFilter(t *testing.T) {
	spotify := &fakeAdapter{id: "spotify", reliability: 1.0}
	itunes := &fakeAdapter{id: "itunes", reliability: 0.9}
	c := &Coordinator{Sources: []source.Adapter{spotify, itunes}}

	evidence := c.Gather(context.Background(), "Velvet Fox", core.NameTypeBand, []string{"itunes"})

	require.Len(t, evidence, 1)
	assert.Equal(t, "itunes", evidence[0].SourceID)
	assert.Zero(t, spotify.calls.Load())
}
