package core

import "time"

// NameType identifies what kind of name is being verified.
type NameType string

const (
	NameTypeBand NameType = "band"
	NameTypeSong NameType = "song"
)

// Valid reports whether the name type is one of the supported values.
func (t NameType) Valid() bool {
	return t == NameTypeBand || t == NameTypeSong
}

// Status is the terminal verdict for a verified name.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSimilar   Status = "similar"
	StatusTaken     Status = "taken"
	StatusUncertain Status = "uncertain"
)

// ConfidenceLevel buckets a numeric confidence into a qualitative label.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "very-high"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceVeryLow  ConfidenceLevel = "very-low"
)

// LevelForConfidence maps a confidence value in [0,1] to its bucket.
func LevelForConfidence(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.9:
		return ConfidenceVeryHigh
	case confidence >= 0.75:
		return ConfidenceHigh
	case confidence >= 0.5:
		return ConfidenceMedium
	case confidence >= 0.25:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Action is the recommendation attached to a decision.
type Action string

const (
	ActionSafeToUse            Action = "safe-to-use"
	ActionConsiderAlternatives Action = "consider-alternatives"
	ActionAvoid                Action = "avoid"
	ActionProceedWithCaution   Action = "proceed-with-caution"
)

// MatchType classifies how closely a platform match resembles the candidate.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPhonetic MatchType = "phonetic"
	MatchPartial  MatchType = "partial"
	MatchFuzzy    MatchType = "fuzzy"
	MatchNone     MatchType = "none"
)

// RequestOptions tunes a single verification request.
type RequestOptions struct {
	CacheEnabled      bool          `json:"cache_enabled"`
	MaxCacheAge       time.Duration `json:"max_cache_age,omitempty"`
	Sources           []string      `json:"sources,omitempty"`
	SkipEasterEggs    bool          `json:"skip_easter_eggs,omitempty"`
	SkipFamousArtists bool          `json:"skip_famous_artists,omitempty"`
}

// DefaultRequestOptions returns the options applied when a caller passes none.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{CacheEnabled: true}
}

// NameRequest is one candidate name to verify. Immutable once constructed.
type NameRequest struct {
	Name    string         `json:"name"`
	Type    NameType       `json:"type"`
	Options RequestOptions `json:"options"`
}

// PlatformMatch is one candidate real-world entity returned by a source.
type PlatformMatch struct {
	Name               string    `json:"name"`
	Artist             string    `json:"artist,omitempty"`
	Popularity         int       `json:"popularity,omitempty"`
	Genres             []string  `json:"genres,omitempty"`
	Similarity         float64   `json:"similarity"`
	PhoneticSimilarity float64   `json:"phonetic_similarity"`
	IsExactMatch       bool      `json:"is_exact_match"`
	MatchType          MatchType `json:"match_type"`
	SourceID           string    `json:"source_id"`
}

// PlatformEvidence is the normalized per-source result bundle.
// Adapters never return raw third-party shapes past their boundary.
type PlatformEvidence struct {
	SourceID       string          `json:"source_id"`
	Available      bool            `json:"available"`
	Reliability    float64         `json:"reliability"`
	Matches        []PlatformMatch `json:"matches"`
	ExactMatches   []PlatformMatch `json:"exact_matches"`
	SimilarMatches []PlatformMatch `json:"similar_matches"`
	TotalResults   int             `json:"total_results"`
	SearchQuality  float64         `json:"search_quality"`
	ResponseTimeMs int64           `json:"response_time_ms"`
	Err            *VerifyError    `json:"error,omitempty"`
}

// Failed reports whether the source produced no usable evidence.
func (e *PlatformEvidence) Failed() bool {
	return e == nil || e.Err != nil
}

// AggregationQuality grades the evidence-gathering process itself,
// distinct from confidence in the decision.
type AggregationQuality string

const (
	AggregationHigh   AggregationQuality = "high"
	AggregationMedium AggregationQuality = "medium"
	AggregationLow    AggregationQuality = "low"
)

// AggregatedEvidence is the deduplicated union of evidence across sources.
// Recomputed on every cache miss, never cached independently.
type AggregatedEvidence struct {
	AllMatches         []PlatformMatch              `json:"all_matches"`
	ExactMatches       []PlatformMatch              `json:"exact_matches"`
	SimilarMatches     []PlatformMatch              `json:"similar_matches"`
	PerSource          map[string]*PlatformEvidence `json:"per_source"`
	HighestSimilarity  float64                      `json:"highest_similarity"`
	AverageReliability float64                      `json:"average_reliability"`
	SourcesQueried     []string                     `json:"sources_queried"`
	SourcesSucceeded   []string                     `json:"sources_succeeded"`
	SourcesFailed      []string                     `json:"sources_failed"`
	Quality            AggregationQuality           `json:"aggregation_quality"`
}

// SimilarityScore describes one candidate-vs-match comparison.
type SimilarityScore struct {
	OverallSimilarity  float64   `json:"overall_similarity"`
	PhoneticSimilarity float64   `json:"phonetic_similarity"`
	EditDistance       int       `json:"edit_distance"`
	TokenSimilarity    float64   `json:"token_similarity"`
	Confidence         float64   `json:"confidence"`
	MatchType          MatchType `json:"match_type"`
}

// UniquenessScore grades the candidate name on its own, independent of
// any external evidence. Always computable offline.
type UniquenessScore struct {
	Score          float64            `json:"score"`
	Factors        map[string]float64 `json:"factors"`
	WordCount      int                `json:"word_count"`
	UncommonWords  int                `json:"uncommon_words"`
	Recommendation string             `json:"recommendation"`
}

// Decision is the terminal output of the decision stage.
// Invariant: CacheTTL >= 0.
type Decision struct {
	Status              Status             `json:"status"`
	Confidence          float64            `json:"confidence"`
	ConfidenceLevel     ConfidenceLevel    `json:"confidence_level"`
	PrimaryReason       string             `json:"primary_reason"`
	ContributingFactors []string           `json:"contributing_factors,omitempty"`
	RecommendedAction   Action             `json:"recommended_action"`
	CacheTTL            time.Duration      `json:"cache_ttl_seconds"`
	Quality             AggregationQuality `json:"aggregation_quality"`
}

// VerificationLink is an outbound search link attached to a result.
// Presentation data only; no verification logic depends on it.
type VerificationLink struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// VerificationResult is the public shape consumed by other subsystems
// and serialized to JSON by the HTTP adapter.
type VerificationResult struct {
	Name            string             `json:"name"`
	Type            NameType           `json:"type"`
	Status          Status             `json:"status"`
	Details         string             `json:"details"`
	SimilarNames    []string           `json:"similar_names,omitempty"`
	Suggestions     []string           `json:"suggestions,omitempty"`
	Links           []VerificationLink `json:"verification_links"`
	Confidence      float64            `json:"confidence,omitempty"`
	ConfidenceLevel ConfidenceLevel    `json:"confidence_level,omitempty"`
	Quality         AggregationQuality `json:"aggregation_quality,omitempty"`
	CheckedAt       time.Time          `json:"checked_at"`
	FromCache       bool               `json:"from_cache,omitempty"`
}

// RateLimitState captures per-endpoint rate limiting state.
type RateLimitState struct {
	RequestCount int
	WindowStart  time.Time
	BackoffUntil *time.Time
	Last429At    *time.Time
}
