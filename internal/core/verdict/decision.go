package verdict

import (
	"fmt"
	"time"

	"github.com/bandradar/bandradar/internal/core"
)

// highReliabilityMin is the reliability at or above which a single
// source's exact match is trusted to mark a name taken on its own.
const highReliabilityMin = 0.8

// TTLPolicy holds the outcome-dependent cache lifetimes. Taken results
// outlive available ones because an established name rarely frees up,
// while availability can vanish at any moment.
type TTLPolicy struct {
	Available time.Duration
	Similar   time.Duration
	Taken     time.Duration
	Uncertain time.Duration
}

// DefaultTTLPolicy mirrors the configuration defaults.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Available: time.Hour,
		Similar:   2 * time.Hour,
		Taken:     24 * time.Hour,
		Uncertain: 2 * time.Minute,
	}
}

// Policy configures the decision stage.
type Policy struct {
	// FailOpen degrades total source failure to a low-confidence
	// "available" instead of "uncertain".
	FailOpen bool
	TTL      TTLPolicy
}

// Decide maps aggregated evidence and its confidence to a terminal
// decision: status, recommended action, and the cache lifetime the
// result deserves.
func Decide(agg *core.AggregatedEvidence, outcome Outcome, policy Policy) core.Decision {
	if policy.TTL == (TTLPolicy{}) {
		policy.TTL = DefaultTTLPolicy()
	}

	decision := core.Decision{
		Confidence:          outcome.Confidence,
		ConfidenceLevel:     outcome.Level,
		ContributingFactors: outcome.Factors,
		Quality:             core.AggregationLow,
	}
	if agg != nil {
		decision.Quality = agg.Quality
	}

	if agg == nil || len(agg.SourcesSucceeded) == 0 {
		return decideTotalFailure(decision, policy)
	}

	switch {
	case hasHighReliabilityExact(agg):
		decision.Status = core.StatusTaken
		decision.RecommendedAction = core.ActionAvoid
		decision.CacheTTL = policy.TTL.Taken
		decision.PrimaryReason = takenReason(agg)

	case len(agg.ExactMatches) > 0:
		// Exact match, but only from low-reliability sources.
		decision.Status = core.StatusSimilar
		decision.RecommendedAction = core.ActionConsiderAlternatives
		decision.CacheTTL = policy.TTL.Similar
		decision.PrimaryReason = fmt.Sprintf(
			"exact match %q reported only by low-reliability sources", agg.ExactMatches[0].Name)

	case len(agg.SimilarMatches) > 0:
		decision.Status = core.StatusSimilar
		decision.RecommendedAction = core.ActionConsiderAlternatives
		decision.CacheTTL = policy.TTL.Similar
		decision.PrimaryReason = fmt.Sprintf(
			"%d similar name(s) found, closest %.0f%% similar",
			len(agg.SimilarMatches), agg.HighestSimilarity*100)

	case agg.Quality == core.AggregationLow:
		decision.Status = core.StatusUncertain
		decision.RecommendedAction = core.ActionProceedWithCaution
		decision.CacheTTL = policy.TTL.Uncertain
		decision.PrimaryReason = "sources disagree about this name"

	default:
		decision.Status = core.StatusAvailable
		decision.CacheTTL = policy.TTL.Available
		decision.PrimaryReason = fmt.Sprintf(
			"no conflicting names across %d source(s)", len(agg.SourcesSucceeded))
		if outcome.Confidence >= 0.75 {
			decision.RecommendedAction = core.ActionSafeToUse
		} else {
			decision.RecommendedAction = core.ActionProceedWithCaution
		}
	}

	return decision
}

func decideTotalFailure(decision core.Decision, policy Policy) core.Decision {
	decision.Quality = core.AggregationLow
	decision.CacheTTL = policy.TTL.Uncertain
	decision.RecommendedAction = core.ActionProceedWithCaution

	if policy.FailOpen {
		decision.Status = core.StatusAvailable
		decision.Confidence = 0.3
		decision.ConfidenceLevel = core.LevelForConfidence(decision.Confidence)
		decision.PrimaryReason = "every source failed, assuming available"
		return decision
	}

	decision.Status = core.StatusUncertain
	decision.PrimaryReason = "every source failed"
	return decision
}

func hasHighReliabilityExact(agg *core.AggregatedEvidence) bool {
	for _, sourceID := range agg.SourcesSucceeded {
		evidence := agg.PerSource[sourceID]
		if evidence == nil || evidence.Reliability < highReliabilityMin {
			continue
		}
		if len(evidence.ExactMatches) > 0 {
			return true
		}
	}
	return false
}

func takenReason(agg *core.AggregatedEvidence) string {
	for _, sourceID := range agg.SourcesSucceeded {
		evidence := agg.PerSource[sourceID]
		if evidence == nil || evidence.Reliability < highReliabilityMin || len(evidence.ExactMatches) == 0 {
			continue
		}
		match := evidence.ExactMatches[0]
		if match.Artist != "" {
			return fmt.Sprintf("exact match %q by %s on %s", match.Name, match.Artist, sourceID)
		}
		return fmt.Sprintf("exact match %q on %s", match.Name, sourceID)
	}
	return "exact match found"
}
