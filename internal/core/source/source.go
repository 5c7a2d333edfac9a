// Package source contains one adapter per external catalog. Every
// adapter normalizes third-party responses into core.PlatformEvidence
// at its boundary and never lets a failure propagate as an error:
// degraded evidence carries a typed VerifyError instead.
package source

import (
	"context"
	"time"

	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/score"
)

// Adapter is the capability interface all catalog adapters implement.
// New sources plug into the coordinator by implementing this; the
// coordinator itself never changes.
type Adapter interface {
	// ID returns the stable source identifier.
	ID() string

	// Reliability is the static weight of this source's evidence in [0,1].
	Reliability() float64

	// Verify searches the catalog for the given name. The returned
	// evidence is degraded (Err set) rather than an error for any
	// network or upstream failure; the error return is reserved for
	// invalid input and programming mistakes.
	Verify(ctx context.Context, name string, nameType core.NameType) (*core.PlatformEvidence, error)
}

// rawMatch is a catalog hit before similarity annotation.
type rawMatch struct {
	name       string
	artist     string
	popularity int
	genres     []string
}

// buildEvidence annotates raw catalog hits with similarity scores and
// partitions them into exact and similar buckets.
func buildEvidence(sourceID string, reliability float64, candidate string, raws []rawMatch, total int, started time.Time) *core.PlatformEvidence {
	evidence := &core.PlatformEvidence{
		SourceID:       sourceID,
		Reliability:    reliability,
		TotalResults:   total,
		SearchQuality:  1.0,
		ResponseTimeMs: time.Since(started).Milliseconds(),
	}

	for _, raw := range raws {
		if raw.name == "" {
			continue
		}
		sim := score.Compare(candidate, raw.name)
		if sim.MatchType == core.MatchNone {
			continue
		}

		match := core.PlatformMatch{
			Name:               raw.name,
			Artist:             raw.artist,
			Popularity:         raw.popularity,
			Genres:             raw.genres,
			Similarity:         sim.OverallSimilarity,
			PhoneticSimilarity: sim.PhoneticSimilarity,
			IsExactMatch:       sim.MatchType == core.MatchExact,
			MatchType:          sim.MatchType,
			SourceID:           sourceID,
		}

		evidence.Matches = append(evidence.Matches, match)
		if match.IsExactMatch {
			evidence.ExactMatches = append(evidence.ExactMatches, match)
		} else {
			evidence.SimilarMatches = append(evidence.SimilarMatches, match)
		}
	}

	evidence.Available = len(evidence.ExactMatches) == 0
	return evidence
}

// failedEvidence wraps a typed failure into degraded evidence.
func failedEvidence(sourceID string, reliability float64, verr *core.VerifyError, started time.Time) *core.PlatformEvidence {
	return &core.PlatformEvidence{
		SourceID:       sourceID,
		Available:      false,
		Reliability:    reliability,
		SearchQuality:  0,
		ResponseTimeMs: time.Since(started).Milliseconds(),
		Err:            verr,
	}
}
