package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/cache"
	"github.com/bandradar/bandradar/internal/core/score"
	"github.com/bandradar/bandradar/internal/core/source"
	"github.com/bandradar/bandradar/internal/core/verdict"
)

// DefaultFamousTTL is how long famous-artist hits stay cached. These
// essentially never change, so they outlive every other outcome.
const DefaultFamousTTL = 168 * time.Hour

// HistoryRecorder persists completed verifications. The engine only
// hands results over; decisions never read history back.
type HistoryRecorder interface {
	RecordVerification(ctx context.Context, result core.VerificationResult, decision core.Decision) error
}

// Verifier is the public entry point: shortcuts, cache, dedup, source
// fan-out, aggregation, and the final decision, in that order.
type Verifier struct {
	Coordinator *Coordinator
	Famous      *source.Famous
	Cache       *cache.ResultCache
	Dedup       *cache.Deduper
	History     HistoryRecorder
	Policy      verdict.Policy
	FamousTTL   time.Duration

	// Timeout bounds one name's verification end to end. Sources that
	// miss the deadline surface as timeout evidence; the overall call
	// still returns a result. Zero disables the bound.
	Timeout time.Duration

	Clock func() time.Time
}

// VerifyNames verifies a batch of names. The i-th result always
// corresponds to the i-th request regardless of source latencies.
// Only invalid input fails the call; source trouble degrades per-name
// results instead.
func (v *Verifier) VerifyNames(ctx context.Context, requests []core.NameRequest) ([]*core.VerificationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Reject malformed input before any network or cache work.
	for _, req := range requests {
		if err := core.ValidateRequest(req); err != nil {
			return nil, err
		}
	}

	results := make([]*core.VerificationResult, len(requests))
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req core.NameRequest) {
			defer wg.Done()
			results[i] = v.verifyOne(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results, nil
}

// VerifyName verifies a single name.
func (v *Verifier) VerifyName(ctx context.Context, req core.NameRequest) (*core.VerificationResult, error) {
	results, err := v.VerifyNames(ctx, []core.NameRequest{req})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (v *Verifier) verifyOne(ctx context.Context, req core.NameRequest) *core.VerificationResult {
	opts := req.Options

	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	if !opts.SkipEasterEggs {
		if result, ok := v.easterEgg(req); ok {
			return result
		}
	}

	key := core.CacheKey(req.Name, req.Type)
	if opts.CacheEnabled && v.Cache != nil {
		if entry, ok := v.Cache.GetFresh(key, opts.MaxCacheAge); ok {
			cached := entry.Result
			cached.FromCache = true
			return &cached
		}
	}

	run := func() (core.VerificationResult, error) {
		return v.verifyLive(ctx, req, key), nil
	}

	if v.Dedup != nil {
		result, _, err := v.Dedup.Do(cache.RequestKey(req), run)
		if err == nil {
			return &result
		}
		// The deduper only propagates errors from run, which never
		// returns one. Fall through to a direct call regardless.
	}

	result, _ := run()
	return &result
}

// verifyLive performs the uncached verification: famous shortcut first,
// then the full source fan-out.
func (v *Verifier) verifyLive(ctx context.Context, req core.NameRequest, key string) core.VerificationResult {
	started := v.now()

	if !req.Options.SkipFamousArtists && v.Famous != nil {
		if match, ok := v.Famous.Lookup(req.Name, req.Type); ok {
			result, decision := v.famousResult(req, match)
			v.finish(ctx, key, started, req.Options, result, decision)
			return result
		}
	}

	evidence := v.Coordinator.Gather(ctx, req.Name, req.Type, req.Options.Sources)
	agg := Aggregate(evidence)
	outcome := verdict.Calculate(agg, score.ScoreUniqueness(req.Name))
	decision := verdict.Decide(agg, outcome, v.Policy)

	result := v.buildResult(req, agg, decision)
	v.finish(ctx, key, started, req.Options, result, decision)
	return result
}

// finish writes the result to cache and history. The cache write is
// guarded against clobbering a fresher entry stored by a concurrent
// verification that started later.
func (v *Verifier) finish(ctx context.Context, key string, started time.Time, opts core.RequestOptions, result core.VerificationResult, decision core.Decision) {
	if opts.CacheEnabled && v.Cache != nil && decision.CacheTTL > 0 {
		if entry, ok := v.Cache.Get(key); !ok || !entry.StoredAt.After(started) {
			v.Cache.Set(key, result, decision, decision.CacheTTL)
		}
	}

	if v.History != nil {
		// History is best-effort; a storage hiccup must not degrade
		// the verification itself.
		_ = v.History.RecordVerification(ctx, result, decision)
	}
}

func (v *Verifier) famousResult(req core.NameRequest, match core.PlatformMatch) (core.VerificationResult, core.Decision) {
	ttl := v.FamousTTL
	if ttl <= 0 {
		ttl = DefaultFamousTTL
	}

	decision := core.Decision{
		Status:            core.StatusTaken,
		Confidence:        0.98,
		ConfidenceLevel:   core.ConfidenceVeryHigh,
		PrimaryReason:     famousReason(match, req.Type),
		RecommendedAction: core.ActionAvoid,
		CacheTTL:          ttl,
		Quality:           core.AggregationHigh,
	}

	result := core.VerificationResult{
		Name:            req.Name,
		Type:            req.Type,
		Status:          decision.Status,
		Details:         decision.PrimaryReason,
		Suggestions:     SuggestAlternatives(req.Name, req.Type),
		Links:           VerificationLinks(req.Name, req.Type),
		Confidence:      decision.Confidence,
		ConfidenceLevel: decision.ConfidenceLevel,
		Quality:         decision.Quality,
		CheckedAt:       v.now(),
	}
	return result, decision
}

func famousReason(match core.PlatformMatch, nameType core.NameType) string {
	if nameType == core.NameTypeSong && match.Artist != "" {
		return "\"" + match.Name + "\" is a well-known song by " + match.Artist
	}
	return "\"" + match.Name + "\" is a well-known artist"
}

func (v *Verifier) buildResult(req core.NameRequest, agg *core.AggregatedEvidence, decision core.Decision) core.VerificationResult {
	result := core.VerificationResult{
		Name:            req.Name,
		Type:            req.Type,
		Status:          decision.Status,
		Details:         decision.PrimaryReason,
		SimilarNames:    similarNames(req.Name, agg, 5),
		Links:           VerificationLinks(req.Name, req.Type),
		Confidence:      decision.Confidence,
		ConfidenceLevel: decision.ConfidenceLevel,
		Quality:         decision.Quality,
		CheckedAt:       v.now(),
	}

	if decision.Status == core.StatusTaken || decision.Status == core.StatusSimilar {
		result.Suggestions = SuggestAlternatives(req.Name, req.Type)
	}
	return result
}

// similarNames lists the closest distinct names found, best first.
// Matches are re-scored against the candidate so ordering reflects
// similarity to the requested name, not the catalogs' result order.
func similarNames(candidate string, agg *core.AggregatedEvidence, limit int) []string {
	if agg == nil || len(agg.AllMatches) == 0 {
		return nil
	}

	scores := score.ScoreMatches(candidate, agg.AllMatches)
	order := make([]int, len(agg.AllMatches))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]].OverallSimilarity > scores[order[b]].OverallSimilarity
	})

	seen := make(map[string]bool)
	var names []string
	for _, i := range order {
		match := agg.AllMatches[i]
		canonical := core.CanonicalName(match.Name)
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		names = append(names, match.Name)
		if len(names) >= limit {
			break
		}
	}
	return names
}

func (v *Verifier) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now().UTC()
}
