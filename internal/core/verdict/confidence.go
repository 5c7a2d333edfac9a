package verdict

import (
	"fmt"
	"math"

	"github.com/bandradar/bandradar/internal/core"
)

// Match strengths by classification. An exact match is near-certain
// evidence the name is in use; weaker match types contribute less.
const (
	exactStrength    = 0.85
	phoneticStrength = 0.70
	partialStrength  = 0.50
	fuzzyStrength    = 0.30

	// noEvidenceConfidence is the confidence assigned when every queried
	// source succeeds and none returns a match. Absence of evidence from
	// multiple independent catalogs is strong, not perfect.
	noEvidenceConfidence = 0.9

	// corroborationBoostCap bounds the extra confidence that popularity
	// and additional confirming results can add.
	corroborationBoostCap = 0.1

	// Uniqueness bands for the no-evidence case. Zero hits on highly
	// distinctive wording is more trustworthy than zero hits on a name
	// made of common words, which catalogs may simply index differently.
	distinctiveUniqueness = 0.75
	commonUniqueness      = 0.25
	distinctiveBonus      = 0.03
	commonPenalty         = 0.05
)

// Outcome is the numeric confidence plus its derivation trail.
type Outcome struct {
	Confidence float64
	Level      core.ConfidenceLevel
	Factors    []string
}

// Calculate derives confidence from aggregated evidence: each source
// that found matches contributes its strongest match weighted by source
// reliability, normalized over the contributing sources. Popularity and
// match-count corroboration add at most corroborationBoostCap. The
// candidate's own uniqueness grade shades the no-evidence case; a
// zero-value uniqueness means "not computed" and changes nothing.
func Calculate(agg *core.AggregatedEvidence, uniqueness core.UniquenessScore) Outcome {
	if agg == nil || len(agg.SourcesSucceeded) == 0 {
		return Outcome{
			Confidence: 0,
			Level:      core.ConfidenceVeryLow,
			Factors:    []string{"no source returned usable evidence"},
		}
	}

	if len(agg.AllMatches) == 0 {
		out := Outcome{
			Confidence: noEvidenceConfidence,
			Factors: []string{
				fmt.Sprintf("no matches across %d source(s)", len(agg.SourcesSucceeded)),
			},
		}
		if len(agg.SourcesSucceeded) == 1 {
			// A single empty catalog is weaker corroboration.
			out.Confidence -= 0.1
			out.Factors = append(out.Factors, "only one source available for corroboration")
		}
		switch {
		case uniqueness.Score >= distinctiveUniqueness:
			out.Confidence += distinctiveBonus
			out.Factors = append(out.Factors, "distinctive wording, low collision risk")
		case uniqueness.Score > 0 && uniqueness.Score < commonUniqueness:
			out.Confidence -= commonPenalty
			out.Factors = append(out.Factors, "common wording, collisions catalogs may miss")
		}
		out.Confidence = clamp01(out.Confidence)
		out.Level = core.LevelForConfidence(out.Confidence)
		return out
	}

	var weighted, totalWeight float64
	var factors []string
	for _, sourceID := range agg.SourcesSucceeded {
		evidence := agg.PerSource[sourceID]
		if evidence == nil || len(evidence.Matches) == 0 {
			continue
		}
		strength := strongestMatch(evidence.Matches)
		weighted += strength * evidence.Reliability
		totalWeight += evidence.Reliability
		factors = append(factors,
			fmt.Sprintf("%s: %d match(es), strength %.2f, reliability %.2f",
				sourceID, len(evidence.Matches), strength, evidence.Reliability))
	}

	confidence := 0.0
	if totalWeight > 0 {
		confidence = weighted / totalWeight
	}

	boost := corroborationBoost(agg)
	if boost > 0 {
		confidence += boost
		factors = append(factors, fmt.Sprintf("corroboration boost +%.2f", boost))
	}
	confidence = clamp01(confidence)

	return Outcome{
		Confidence: confidence,
		Level:      core.LevelForConfidence(confidence),
		Factors:    factors,
	}
}

func strongestMatch(matches []core.PlatformMatch) float64 {
	best := 0.0
	for _, match := range matches {
		strength := matchStrength(match)
		if strength > best {
			best = strength
		}
	}
	return best
}

func matchStrength(match core.PlatformMatch) float64 {
	switch match.MatchType {
	case core.MatchExact:
		strength := exactStrength
		if match.Popularity >= 50 {
			strength = 0.9
		}
		return strength
	case core.MatchPhonetic:
		return phoneticStrength
	case core.MatchPartial:
		return partialStrength
	case core.MatchFuzzy:
		return fuzzyStrength
	default:
		return 0
	}
}

// corroborationBoost rewards agreement: 0.03 per additional source that
// found matches beyond the first, plus 0.02 when the strongest match is
// genuinely popular, capped.
func corroborationBoost(agg *core.AggregatedEvidence) float64 {
	confirming := 0
	popular := false
	for _, sourceID := range agg.SourcesSucceeded {
		evidence := agg.PerSource[sourceID]
		if evidence == nil || len(evidence.Matches) == 0 {
			continue
		}
		confirming++
		for _, match := range evidence.Matches {
			if match.Popularity >= 70 {
				popular = true
			}
		}
	}

	boost := 0.0
	if confirming > 1 {
		boost += 0.03 * float64(confirming-1)
	}
	if popular {
		boost += 0.02
	}
	return math.Min(boost, corroborationBoostCap)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
