package engine

import (
	"math"
	"sort"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/score"
)

// dedupeSimilarityThreshold is the similarity above which two matches
// with near-identical normalized names but no artist agreement are
// still considered the same real-world entity.
const dedupeSimilarityThreshold = 0.92

// comparableReliabilityDelta bounds how far apart two sources'
// reliabilities may be while their disagreement still downgrades
// aggregation quality.
const comparableReliabilityDelta = 0.15

// Aggregate merges per-source evidence into one record, deduplicating
// matches that represent the same real-world entity across catalogs.
func Aggregate(perSource []*core.PlatformEvidence) *core.AggregatedEvidence {
	agg := &core.AggregatedEvidence{
		PerSource: make(map[string]*core.PlatformEvidence, len(perSource)),
	}

	reliabilitySum := 0.0
	for _, evidence := range perSource {
		if evidence == nil {
			continue
		}
		agg.PerSource[evidence.SourceID] = evidence
		agg.SourcesQueried = append(agg.SourcesQueried, evidence.SourceID)

		if evidence.Failed() {
			agg.SourcesFailed = append(agg.SourcesFailed, evidence.SourceID)
			continue
		}

		agg.SourcesSucceeded = append(agg.SourcesSucceeded, evidence.SourceID)
		reliabilitySum += evidence.Reliability
	}

	if len(agg.SourcesSucceeded) > 0 {
		agg.AverageReliability = reliabilitySum / float64(len(agg.SourcesSucceeded))
	}

	reliabilityBySource := make(map[string]float64, len(agg.PerSource))
	for id, evidence := range agg.PerSource {
		reliabilityBySource[id] = evidence.Reliability
	}
	agg.AllMatches = dedupeMatches(collectMatches(perSource, agg.SourcesSucceeded), reliabilityBySource)
	for _, match := range agg.AllMatches {
		if match.Similarity > agg.HighestSimilarity {
			agg.HighestSimilarity = match.Similarity
		}
		if match.IsExactMatch {
			agg.ExactMatches = append(agg.ExactMatches, match)
		} else {
			agg.SimilarMatches = append(agg.SimilarMatches, match)
		}
	}

	agg.Quality = aggregationQuality(agg)
	return agg
}

func collectMatches(perSource []*core.PlatformEvidence, succeeded []string) []core.PlatformMatch {
	ok := make(map[string]bool, len(succeeded))
	for _, id := range succeeded {
		ok[id] = true
	}

	var matches []core.PlatformMatch
	for _, evidence := range perSource {
		if evidence == nil || !ok[evidence.SourceID] {
			continue
		}
		matches = append(matches, evidence.Matches...)
	}
	return matches
}

// dedupeMatches collapses matches that represent the same real-world
// entity: near-identical normalized names AND either the same artist
// (when both are known) or very high similarity. The match from the
// highest-reliability source wins.
func dedupeMatches(matches []core.PlatformMatch, reliability map[string]float64) []core.PlatformMatch {
	if len(matches) <= 1 {
		return matches
	}

	// Highest reliability first so the survivor of each group is the
	// most trusted source's view of the entity.
	sorted := make([]core.PlatformMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := reliability[sorted[i].SourceID], reliability[sorted[j].SourceID]
		if ri != rj {
			return ri > rj
		}
		return sorted[i].Similarity > sorted[j].Similarity
	})

	var kept []core.PlatformMatch
	for _, candidate := range sorted {
		duplicate := false
		for _, existing := range kept {
			if sameEntity(existing, candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func sameEntity(a, b core.PlatformMatch) bool {
	if core.CanonicalName(a.Name) != core.CanonicalName(b.Name) {
		return false
	}
	if a.Artist != "" && b.Artist != "" {
		return core.CanonicalName(a.Artist) == core.CanonicalName(b.Artist)
	}
	return score.Compare(a.Name, b.Name).OverallSimilarity >= dedupeSimilarityThreshold
}

// aggregationQuality grades the gathering process: high needs at least
// two agreeing sources, medium is a single successful source, low is
// total failure or sharp disagreement between comparable sources.
func aggregationQuality(agg *core.AggregatedEvidence) core.AggregationQuality {
	succeeded := len(agg.SourcesSucceeded)
	if succeeded == 0 {
		return core.AggregationLow
	}
	if succeeded == 1 {
		return core.AggregationMedium
	}
	if sourcesDisagree(agg) {
		return core.AggregationLow
	}
	return core.AggregationHigh
}

// sourcesDisagree reports a sharp conflict: one source sees an exact
// match while another of comparable reliability sees nothing at all.
func sourcesDisagree(agg *core.AggregatedEvidence) bool {
	for _, a := range agg.PerSource {
		if a.Failed() || len(a.ExactMatches) == 0 {
			continue
		}
		for _, b := range agg.PerSource {
			if b.Failed() || b.SourceID == a.SourceID {
				continue
			}
			if len(b.Matches) == 0 && math.Abs(a.Reliability-b.Reliability) <= comparableReliabilityDelta {
				return true
			}
		}
	}
	return false
}
