package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/core"
)

func okEvidence(sourceID string, reliability float64, matches ...core.PlatformMatch) *core.PlatformEvidence {
	evidence := &core.PlatformEvidence{
		SourceID:    sourceID,
		Reliability: reliability,
		Matches:     matches,
		Available:   true,
	}
	for _, match := range matches {
		if match.IsExactMatch {
			evidence.ExactMatches = append(evidence.ExactMatches, match)
			evidence.Available = false
		} else {
			evidence.SimilarMatches = append(evidence.SimilarMatches, match)
		}
	}
	return evidence
}

func failedSource(sourceID string, reliability float64) *core.PlatformEvidence {
	return &core.PlatformEvidence{
		SourceID:    sourceID,
		Reliability: reliability,
		Err:         core.TimeoutError(sourceID),
	}
}

func TestAggregateDedupesSameEntityAcrossSources(t *testing.T) {
	spotifyMatch := core.PlatformMatch{
		Name:         "Nirvana",
		Artist:       "Nirvana",
		Popularity:   90,
		Similarity:   1,
		IsExactMatch: true,
		MatchType:    core.MatchExact,
		SourceID:     "spotify",
	}
	mbMatch := core.PlatformMatch{
		Name:         "Nirvana",
		Artist:       "Nirvana",
		Popularity:   100,
		Similarity:   1,
		IsExactMatch: true,
		MatchType:    core.MatchExact,
		SourceID:     "musicbrainz",
	}

	agg := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0, spotifyMatch),
		okEvidence("musicbrainz", 0.85, mbMatch),
	})

	require.Len(t, agg.AllMatches, 1)
	// Highest-reliability source's view of the entity survives.
	assert.Equal(t, "spotify", agg.AllMatches[0].SourceID)
	assert.Len(t, agg.ExactMatches, 1)
	assert.Empty(t, agg.SimilarMatches)
}

func TestAggregateKeepsDistinctArtists(t *testing.T) {
	agg := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0, core.PlatformMatch{
			Name: "Yesterday", Artist: "The Beatles",
			Similarity: 1, IsExactMatch: true, MatchType: core.MatchExact, SourceID: "spotify",
		}),
		okEvidence("itunes", 0.9, core.PlatformMatch{
			Name: "Yesterday", Artist: "Imagine Dragons",
			Similarity: 1, IsExactMatch: true, MatchType: core.MatchExact, SourceID: "itunes",
		}),
	})

	// Same title by different artists is two real-world entities.
	assert.Len(t, agg.AllMatches, 2)
}

func TestAggregatePartitionsFailures(t *testing.T) {
	agg := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0),
		failedSource("itunes", 0.9),
		okEvidence("musicbrainz", 0.85),
	})

	assert.ElementsMatch(t, []string{"spotify", "musicbrainz"}, agg.SourcesSucceeded)
	assert.Equal(t, []string{"itunes"}, agg.SourcesFailed)
	assert.Len(t, agg.SourcesQueried, 3)
	assert.InDelta(t, 0.925, agg.AverageReliability, 0.001)
}

func TestAggregateQualityGrades(t *testing.T) {
	high := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0),
		okEvidence("itunes", 0.9),
	})
	assert.Equal(t, core.AggregationHigh, high.Quality)

	medium := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0),
		failedSource("itunes", 0.9),
	})
	assert.Equal(t, core.AggregationMedium, medium.Quality)

	low := Aggregate([]*core.PlatformEvidence{
		failedSource("spotify", 1.0),
		failedSource("itunes", 0.9),
	})
	assert.Equal(t, core.AggregationLow, low.Quality)
}

func TestAggregateSharpDisagreementDowngradesQuality(t *testing.T) {
	agg := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0, core.PlatformMatch{
			Name: "Ghost Signal", Similarity: 1,
			IsExactMatch: true, MatchType: core.MatchExact, SourceID: "spotify",
		}),
		okEvidence("itunes", 0.9),
	})

	assert.Equal(t, core.AggregationLow, agg.Quality)
}

func TestAggregateHighestSimilarity(t *testing.T) {
	agg := Aggregate([]*core.PlatformEvidence{
		okEvidence("spotify", 1.0,
			core.PlatformMatch{Name: "Radio Head", Similarity: 0.81, MatchType: core.MatchPartial, SourceID: "spotify"},
			core.PlatformMatch{Name: "Radios", Similarity: 0.55, MatchType: core.MatchPartial, SourceID: "spotify"},
		),
	})

	assert.InDelta(t, 0.81, agg.HighestSimilarity, 0.001)
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregate(nil)

	assert.Empty(t, agg.SourcesQueried)
	assert.Equal(t, core.AggregationLow, agg.Quality)
	assert.Zero(t, agg.AverageReliability)
}
